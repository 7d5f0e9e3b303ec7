package dto

import (
	"strings"

	"github.com/google/uuid"

	userModel "medcard_backend/internals/features/users/user/model"
)

type RegisterRequest struct {
	UserName        string  `json:"user_name"`
	Email           *string `json:"email"`
	Password        string  `json:"password"`
	ConfirmPassword string  `json:"confirm_password"`
	PasswordHint    string  `json:"password_hint"`
}

func (r *RegisterRequest) Normalize() {
	r.UserName = strings.TrimSpace(r.UserName)
	r.PasswordHint = strings.TrimSpace(r.PasswordHint)
	if r.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*r.Email))
		if e == "" {
			r.Email = nil
		} else {
			r.Email = &e
		}
	}
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	UserName string    `json:"user_name"`
	Email    *string   `json:"email,omitempty"`
	Role     string    `json:"role"`
	IsStaff  bool      `json:"is_staff"`
}

func NewUserResponse(u *userModel.UserModel) UserResponse {
	return UserResponse{ID: u.ID, UserName: u.UserName, Email: u.Email, Role: u.Role, IsStaff: u.IsStaff()}
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

// LoginFailure is attached to a 401 once the hint may be revealed.
type LoginFailure struct {
	FailedAttempts int    `json:"failed_attempts"`
	PasswordHint   string `json:"password_hint,omitempty"`
}
