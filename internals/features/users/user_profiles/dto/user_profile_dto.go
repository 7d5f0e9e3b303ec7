package dto

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	userModel "medcard_backend/internals/features/users/user/model"
	"medcard_backend/internals/features/users/user_profiles/model"
)

var validate = validator.New()

type UpdateProfileRequest struct {
	PasswordHint *string `json:"password_hint" validate:"omitempty,max=200"`
}

// BindUpdate parses and validates a PATCH body.
func BindUpdate(c *fiber.Ctx) (*UpdateProfileRequest, error) {
	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.PasswordHint != nil {
		h := strings.TrimSpace(*req.PasswordHint)
		req.PasswordHint = &h
	}
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

type UserProfileResponse struct {
	UserID       uuid.UUID  `json:"user_id"`
	UserName     string     `json:"user_name"`
	Email        *string    `json:"email,omitempty"`
	Role         string     `json:"role"`
	PasswordHint string     `json:"password_hint"`
	DateJoined   time.Time  `json:"date_joined"`
	LastActivity *time.Time `json:"last_activity,omitempty"`

	TicketsSolved  int     `json:"tickets_solved"`
	CorrectAnswers int     `json:"correct_answers"`
	MistakesMade   int     `json:"mistakes_made"`
	Accuracy       float64 `json:"accuracy"`
}

func NewUserProfileResponse(u *userModel.UserModel, p *model.UserProfileModel) UserProfileResponse {
	answered := p.CorrectAnswers + p.MistakesMade
	var acc float64
	if answered > 0 {
		acc = float64(p.CorrectAnswers) / float64(answered) * 100
	}
	return UserProfileResponse{
		UserID:         u.ID,
		UserName:       u.UserName,
		Email:          u.Email,
		Role:           u.Role,
		PasswordHint:   p.MaskedPasswordHint(),
		DateJoined:     u.CreatedAt,
		LastActivity:   p.LastActivity,
		TicketsSolved:  p.TicketsSolved,
		CorrectAnswers: p.CorrectAnswers,
		MistakesMade:   p.MistakesMade,
		Accuracy:       acc,
	}
}
