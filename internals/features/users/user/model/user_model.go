package model

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"medcard_backend/internals/constants"
)

var validate = validator.New()

// UserModel represents the users table.
type UserModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserName  string    `gorm:"size:50;not null;uniqueIndex:uq_users_user_name" json:"user_name" validate:"required,min=3,max=50"`
	Email     *string   `gorm:"size:255;uniqueIndex:uq_users_email" json:"email,omitempty" validate:"omitempty,email"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"type:varchar(20);not null" json:"role" validate:"oneof=user staff"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserModel) TableName() string {
	return "users"
}

func (u *UserModel) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.SetDefaultValues()
	return nil
}

// SetDefaultValues fills the role before validation.
func (u *UserModel) SetDefaultValues() {
	if u.Role == "" {
		u.Role = constants.RoleUser
	}
}

func (u *UserModel) IsStaff() bool {
	return u.Role == constants.RoleStaff
}

func (u *UserModel) Validate() error {
	u.SetDefaultValues()

	if err := validate.Struct(u); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	messages := make(map[string]string)
	for _, fieldErr := range validationErrs {
		switch fieldErr.Tag() {
		case "required":
			messages[fieldErr.Field()] = fieldErr.Field() + " is required."
		case "email":
			messages[fieldErr.Field()] = "Invalid email format."
		case "min":
			messages[fieldErr.Field()] = fieldErr.Field() + " must be at least " + fieldErr.Param() + " characters."
		case "max":
			messages[fieldErr.Field()] = fieldErr.Field() + " must be at most " + fieldErr.Param() + " characters."
		case "oneof":
			messages[fieldErr.Field()] = fieldErr.Field() + " must be one of " + fieldErr.Param() + "."
		default:
			messages[fieldErr.Field()] = "Invalid format."
		}
	}
	return errors.New(formatErrorMessage(messages))
}

func formatErrorMessage(errs map[string]string) string {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, errs[k])
	}
	return strings.Join(parts, " ")
}
