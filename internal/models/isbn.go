package models

import (
	"strings"
)

// Isbn is a validated ISBN-10 or ISBN-13. The raw input is kept for display;
// comparisons use the form with hyphens and spaces removed.
type Isbn struct {
	raw   string
	clean string
}

// NewIsbn validates raw and returns an Isbn.
func NewIsbn(raw string) (Isbn, error) {
	if strings.TrimSpace(raw) == "" {
		return Isbn{}, NewValidationError("isbn", "invalid ISBN format")
	}

	clean := strings.NewReplacer("-", "", " ", "").Replace(raw)
	if !isValidIsbn10(clean) && !isValidIsbn13(clean) {
		return Isbn{}, NewValidationError("isbn", "invalid ISBN format")
	}

	return Isbn{raw: raw, clean: clean}, nil
}

// MustIsbn is NewIsbn for fixtures and constants; it panics on invalid input.
func MustIsbn(raw string) Isbn {
	isbn, err := NewIsbn(raw)
	if err != nil {
		panic(err)
	}
	return isbn
}

func (i Isbn) String() string { return i.raw }

// Normalized returns the ISBN digits without separators.
func (i Isbn) Normalized() string { return i.clean }

func (i Isbn) IsZero() bool { return i.clean == "" }

func (i Isbn) Equal(other Isbn) bool { return i.clean == other.clean }

func isValidIsbn10(s string) bool {
	if len(s) != 10 {
		return false
	}

	sum := 0
	for i := 0; i < 9; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		sum += int(s[i]-'0') * (10 - i)
	}

	switch check := s[9]; {
	case check == 'X':
		sum += 10
	case check >= '0' && check <= '9':
		sum += int(check - '0')
	default:
		return false
	}

	return sum%11 == 0
}

func isValidIsbn13(s string) bool {
	if len(s) != 13 {
		return false
	}

	sum := 0
	for i := 0; i < 13; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		if i == 12 {
			break
		}
		weight := 1
		if i%2 == 1 {
			weight = 3
		}
		sum += int(s[i]-'0') * weight
	}

	expected := (10 - sum%10) % 10
	return int(s[12]-'0') == expected
}
