package route

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"medcard_backend/internals/configs"
	"medcard_backend/internals/databases/dbtest"
	profileModel "medcard_backend/internals/features/users/user_profiles/model"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	configs.JWTSecret = "test-secret"
	configs.App = configs.AppConfig{}
	db := dbtest.Open(t)
	app := fiber.New()
	AuthRoutes(app, db)
	return app, db
}

func call(t *testing.T, app *fiber.App, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
	}
	return resp.StatusCode, env
}

func register(t *testing.T, app *fiber.App, name, password, hint string) (int, envelope) {
	return call(t, app, "POST", "/api/auth/register", "", fiber.Map{
		"user_name":        name,
		"password":         password,
		"confirm_password": password,
		"password_hint":    hint,
	})
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	app, db := newApp(t)

	status, env := register(t, app, "alice", "pass1", "my cat")
	if status != fiber.StatusCreated || !env.Success {
		t.Fatalf("register: %d %+v", status, env)
	}

	var p profileModel.UserProfileModel
	if err := db.Joins("JOIN users ON users.id = user_profiles.user_id").
		Where("users.user_name = ?", "alice").Take(&p).Error; err != nil {
		t.Fatalf("profile missing: %v", err)
	}
	if p.PasswordHint != "my cat" || p.FailedLoginAttempts != 0 {
		t.Fatalf("unexpected profile %+v", p)
	}

	if status, _ := register(t, app, "alice", "pass1", ""); status != fiber.StatusConflict {
		t.Fatalf("duplicate register status = %d", status)
	}
}

func TestRegisterValidation(t *testing.T) {
	app, _ := newApp(t)

	cases := []fiber.Map{
		{"user_name": "al", "password": "pass1", "confirm_password": "pass1"},
		{"user_name": "alice", "password": "abc", "confirm_password": "abc"},
		{"user_name": "alice", "password": "password", "confirm_password": "password"},
		{"user_name": "alice", "password": "pass1", "confirm_password": "pass2"},
		{"user_name": "alice", "email": "nope", "password": "pass1", "confirm_password": "pass1"},
	}
	for i, body := range cases {
		if status, _ := call(t, app, "POST", "/api/auth/register", "", body); status != fiber.StatusBadRequest {
			t.Fatalf("case %d: status = %d", i, status)
		}
	}
}

func TestLoginRevealsHintAfterRepeatedFailures(t *testing.T) {
	app, _ := newApp(t)
	if status, _ := register(t, app, "bob", "secret1", "first pet"); status != fiber.StatusCreated {
		t.Fatalf("register status = %d", status)
	}

	var failure struct {
		FailedAttempts int    `json:"failed_attempts"`
		PasswordHint   string `json:"password_hint"`
	}
	for attempt := 1; attempt <= 3; attempt++ {
		status, env := call(t, app, "POST", "/api/auth/login", "", fiber.Map{"identifier": "bob", "password": "wrong1"})
		if status != fiber.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d", attempt, status)
		}
		failure.PasswordHint = ""
		if err := json.Unmarshal(env.Data, &failure); err != nil {
			t.Fatalf("attempt %d: %v", attempt, err)
		}
		if failure.FailedAttempts != attempt {
			t.Fatalf("attempt %d: failed_attempts = %d", attempt, failure.FailedAttempts)
		}
		if attempt < 3 && failure.PasswordHint != "" {
			t.Fatalf("hint revealed on attempt %d", attempt)
		}
	}
	if failure.PasswordHint != "first pet" {
		t.Fatalf("hint = %q after three failures", failure.PasswordHint)
	}

	status, _ := call(t, app, "POST", "/api/auth/login", "", fiber.Map{"identifier": "ghost", "password": "wrong1"})
	if status != fiber.StatusUnauthorized {
		t.Fatalf("unknown user status = %d", status)
	}
}

func TestLoginMeLogout(t *testing.T) {
	app, _ := newApp(t)
	if status, _ := register(t, app, "carol", "pass42", ""); status != fiber.StatusCreated {
		t.Fatalf("register status = %d", status)
	}

	status, env := call(t, app, "POST", "/api/auth/login", "", fiber.Map{"identifier": "carol", "password": "pass42"})
	if status != fiber.StatusOK {
		t.Fatalf("login status = %d %+v", status, env)
	}
	var login struct {
		AccessToken string `json:"access_token"`
		User        struct {
			UserName string `json:"user_name"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &login); err != nil {
		t.Fatal(err)
	}
	if login.AccessToken == "" || login.User.Role != "user" {
		t.Fatalf("unexpected login payload %+v", login)
	}

	if status, _ := call(t, app, "GET", "/api/auth/me", "", nil); status != fiber.StatusUnauthorized {
		t.Fatalf("me without token = %d", status)
	}
	status, env = call(t, app, "GET", "/api/auth/me", login.AccessToken, nil)
	if status != fiber.StatusOK {
		t.Fatalf("me status = %d", status)
	}

	if status, _ := call(t, app, "POST", "/api/auth/logout", login.AccessToken, nil); status != fiber.StatusOK {
		t.Fatalf("logout status = %d", status)
	}
	if status, _ := call(t, app, "GET", "/api/auth/me", login.AccessToken, nil); status != fiber.StatusUnauthorized {
		t.Fatalf("blacklisted token accepted: %d", status)
	}
}

func TestChangePassword(t *testing.T) {
	app, _ := newApp(t)
	register(t, app, "dave", "old1pass", "")
	_, env := call(t, app, "POST", "/api/auth/login", "", fiber.Map{"identifier": "dave", "password": "old1pass"})
	var login struct {
		AccessToken string `json:"access_token"`
	}
	_ = json.Unmarshal(env.Data, &login)

	status, _ := call(t, app, "POST", "/api/auth/change-password", login.AccessToken, fiber.Map{
		"current_password": "old1pass",
		"new_password":     "new2pass",
		"confirm_password": "new2pass",
	})
	if status != fiber.StatusOK {
		t.Fatalf("change password status = %d", status)
	}
	if status, _ := call(t, app, "POST", "/api/auth/login", "", fiber.Map{"identifier": "dave", "password": "new2pass"}); status != fiber.StatusOK {
		t.Fatalf("login with new password = %d", status)
	}
}
