package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// HintRevealAfterFailures is the number of failed logins after which the hint is returned.
	HintRevealAfterFailures = 3
	maxHintStars            = 8
	hintVisiblePrefix       = 2
	hintNotSet              = "Not set"
)

// UserProfileModel holds the password hint, failed-login bookkeeping and lifetime study stats.
type UserProfileModel struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_user_profiles_user" json:"user_id"`

	PasswordHint        string     `gorm:"type:varchar(200);not null" json:"-"`
	FailedLoginAttempts int        `gorm:"not null;default:0" json:"failed_login_attempts"`
	LastFailedAttempt   *time.Time `json:"last_failed_attempt,omitempty"`

	TicketsSolved  int        `gorm:"not null;default:0" json:"tickets_solved"`
	CorrectAnswers int        `gorm:"not null;default:0" json:"correct_answers"`
	MistakesMade   int        `gorm:"not null;default:0" json:"mistakes_made"`
	LastActivity   *time.Time `json:"last_activity,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (UserProfileModel) TableName() string {
	return "user_profiles"
}

func (p *UserProfileModel) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// MaskedPasswordHint keeps the first two characters and stars out the rest (at most 8 stars).
func (p *UserProfileModel) MaskedPasswordHint() string {
	return MaskHint(p.PasswordHint)
}

func MaskHint(hint string) string {
	r := []rune(hint)
	if len(r) == 0 {
		return hintNotSet
	}
	if len(r) <= hintVisiblePrefix {
		return strings.Repeat("*", len(r))
	}
	stars := len(r) - hintVisiblePrefix
	if stars > maxHintStars {
		stars = maxHintStars
	}
	return string(r[:hintVisiblePrefix]) + strings.Repeat("*", stars)
}

// ShouldRevealHint reports whether a login failure response may carry the hint.
func (p *UserProfileModel) ShouldRevealHint() bool {
	return p.FailedLoginAttempts >= HintRevealAfterFailures && p.PasswordHint != ""
}
