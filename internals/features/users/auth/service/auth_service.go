package service

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"medcard_backend/internals/configs"
	"medcard_backend/internals/constants"
	authHelper "medcard_backend/internals/features/users/auth/helper"
	"medcard_backend/internals/features/users/auth/dto"
	authRepo "medcard_backend/internals/features/users/auth/repository"
	userModel "medcard_backend/internals/features/users/user/model"
	profileService "medcard_backend/internals/features/users/user_profiles/service"
	helpers "medcard_backend/internals/helpers"
)

const (
	accessTTLDefault = 24 * time.Hour
	accessCookieName = "access_token"
)

func nowUTC() time.Time { return time.Now().UTC() }

func getJWTSecret() (string, error) {
	secret := strings.TrimSpace(configs.JWTSecret)
	if secret == "" {
		return "", fiber.NewError(fiber.StatusInternalServerError, "JWT_SECRET is not set")
	}
	return secret, nil
}

func accessTTL() time.Duration {
	if configs.App.AccessTokenTTL > 0 {
		return configs.App.AccessTokenTTL
	}
	return accessTTLDefault
}

/* ==========================
   REGISTER
========================== */

func Register(db *gorm.DB, c *fiber.Ctx) error {
	var input dto.RegisterRequest
	if err := c.BodyParser(&input); err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	input.Normalize()

	if err := authHelper.ValidateRegisterInput(input.UserName, input.Email, input.Password, input.ConfirmPassword, input.PasswordHint); err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	user := userModel.UserModel{
		UserName: input.UserName,
		Email:    input.Email,
		Role:     constants.RoleUser,
		IsActive: true,
	}
	if err := user.Validate(); err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	taken, err := authRepo.IsUsernameTaken(db, user.UserName)
	if err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "failed to check user name")
	}
	if taken {
		return helpers.JsonError(c, fiber.StatusConflict, "user name is already taken")
	}
	if user.Email != nil {
		if taken, err := authRepo.IsEmailTaken(db, *user.Email); err != nil {
			return helpers.JsonError(c, fiber.StatusInternalServerError, "failed to check email")
		} else if taken {
			return helpers.JsonError(c, fiber.StatusConflict, "email is already registered")
		}
	}

	hash, err := authHelper.HashPassword(input.Password)
	if err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "password hashing failed")
	}
	user.Password = hash

	err = db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := authRepo.CreateUser(tx, &user); err != nil {
			return err
		}
		_, err := profileService.CreateProfile(c.UserContext(), tx, user.ID, input.PasswordHint)
		return err
	})
	if err != nil {
		if status, msg, ok := helpers.MapPGError(err); ok {
			return helpers.JsonError(c, status, msg)
		}
		log.Println("[ERROR] register:", err)
		return helpers.JsonError(c, fiber.StatusInternalServerError, "failed to create user")
	}

	log.Printf("[INFO] registered user %s (%s)", user.UserName, user.ID)
	return helpers.JsonCreated(c, "registration successful", dto.NewUserResponse(&user))
}

/* ==========================
   LOGIN
========================== */

func Login(db *gorm.DB, c *fiber.Ctx) error {
	var input dto.LoginRequest
	if err := c.BodyParser(&input); err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, "invalid input format")
	}
	input.Identifier = strings.TrimSpace(input.Identifier)

	if err := authHelper.ValidateLoginInput(input.Identifier, input.Password); err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := authRepo.FindUserByEmailOrUsername(db, input.Identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helpers.JsonError(c, fiber.StatusUnauthorized, "invalid identifier or password")
		}
		return helpers.JsonError(c, fiber.StatusInternalServerError, "failed to load user")
	}
	if !user.IsActive {
		return helpers.JsonError(c, fiber.StatusForbidden, "your account has been deactivated")
	}

	if err := authHelper.CheckPasswordHash(user.Password, input.Password); err != nil {
		return loginFailed(db, c, user.ID)
	}

	if err := profileService.ResetFailedLogins(c.UserContext(), db, user.ID); err != nil {
		log.Printf("[WARN] reset failed logins for %s: %v", user.ID, err)
	}
	return issueToken(c, user)
}

func loginFailed(db *gorm.DB, c *fiber.Ctx, userID uuid.UUID) error {
	const msg = "invalid identifier or password"

	profile, err := profileService.RecordFailedLogin(c.UserContext(), db, userID)
	if err != nil {
		log.Printf("[WARN] record failed login for %s: %v", userID, err)
		return helpers.JsonError(c, fiber.StatusUnauthorized, msg)
	}

	failure := dto.LoginFailure{FailedAttempts: profile.FailedLoginAttempts}
	if profile.ShouldRevealHint() {
		failure.PasswordHint = profile.PasswordHint
	}
	return helpers.JsonErrorWithData(c, fiber.StatusUnauthorized, msg, failure)
}

// IssueAccessToken signs an HS256 token carrying id, user_name and role.
func IssueAccessToken(user *userModel.UserModel, now time.Time, ttl time.Duration) (string, error) {
	secret, err := getJWTSecret()
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"id":        user.ID.String(),
		"user_name": user.UserName,
		"role":      user.Role,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func issueToken(c *fiber.Ctx, user *userModel.UserModel) error {
	now := nowUTC()
	ttl := accessTTL()

	token, err := IssueAccessToken(user, now, ttl)
	if err != nil {
		return helpers.FromFiberError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     accessCookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
		Path:     "/",
		Expires:  now.Add(ttl),
	})

	return helpers.JsonOK(c, "login successful", dto.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
		User:        dto.NewUserResponse(user),
	})
}

/* ==========================
   LOGOUT
========================== */

func Logout(db *gorm.DB, c *fiber.Ctx) error {
	accessToken := helpers.GetRawAccessToken(c)
	if accessToken == "" {
		accessToken = strings.TrimSpace(c.Cookies(accessCookieName))
	}

	if accessToken != "" {
		if err := authRepo.BlacklistToken(db, accessToken, resolveBlacklistTTL(accessToken)); err != nil {
			log.Printf("[WARN] failed to blacklist token: %v", err)
		}
	} else {
		log.Println("[INFO] logout without access token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     accessCookieName,
		Value:    "",
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
		Path:     "/",
		Expires:  nowUTC().Add(-time.Hour),
		MaxAge:   -1,
	})
	return helpers.JsonOK(c, "logout successful", nil)
}

// resolveBlacklistTTL keeps the entry until the token would have expired.
func resolveBlacklistTTL(accessToken string) time.Duration {
	fallback := time.Duration(configs.App.TokenBlacklistTTLDays) * 24 * time.Hour
	if fallback <= 0 {
		fallback = accessTTLDefault
	}

	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(accessToken, claims); err != nil {
		return fallback
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return fallback
	}
	if ttl := time.Until(time.Unix(int64(exp), 0)); ttl > 0 {
		return ttl
	}
	return time.Minute
}

/* ==========================
   ME
========================== */

func Me(db *gorm.DB, c *fiber.Ctx) error {
	userID, err := helpers.GetUserIDFromToken(c)
	if err != nil {
		return helpers.FromFiberError(c, err)
	}
	user, err := authRepo.FindUserByID(db, userID)
	if err != nil {
		return helpers.JsonError(c, fiber.StatusNotFound, "user not found")
	}
	return helpers.JsonOK(c, "ok", dto.NewUserResponse(user))
}
