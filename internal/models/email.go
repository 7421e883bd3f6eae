package models

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Email is a validated, lowercased email address.
type Email struct {
	value string
}

// NewEmail validates raw and returns the normalized Email.
func NewEmail(raw string) (Email, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !emailPattern.MatchString(trimmed) {
		return Email{}, NewValidationError("email", "invalid email format")
	}
	return Email{value: strings.ToLower(trimmed)}, nil
}

func (e Email) String() string { return e.value }

func (e Email) IsZero() bool { return e.value == "" }

func (e Email) Equal(other Email) bool { return e.value == other.value }
