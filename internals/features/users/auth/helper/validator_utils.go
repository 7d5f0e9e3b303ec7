package helpers

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MinPasswordLength = 4
	MaxHintLength     = 200
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// ValidatePassword requires at least four characters and one digit.
func ValidatePassword(pw string) error {
	if utf8.RuneCountInString(pw) < MinPasswordLength {
		return errors.New("password must be at least 4 characters")
	}
	if !hasDigit(pw) {
		return errors.New("password must contain at least one digit")
	}
	return nil
}

func ValidateRegisterInput(userName string, email *string, password, confirm, hint string) error {
	if l := utf8.RuneCountInString(strings.TrimSpace(userName)); l < 3 || l > 50 {
		return errors.New("user_name must be between 3 and 50 characters")
	}
	if email != nil && strings.TrimSpace(*email) != "" && !isValidEmail(strings.TrimSpace(*email)) {
		return errors.New("invalid email format")
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}
	if utf8.RuneCountInString(hint) > MaxHintLength {
		return errors.New("password_hint must be at most 200 characters")
	}
	return nil
}

func ValidateLoginInput(identifier, password string) error {
	if strings.TrimSpace(identifier) == "" {
		return errors.New("identifier is required")
	}
	if password == "" {
		return errors.New("password is required")
	}
	return nil
}
