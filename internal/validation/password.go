package validation

import (
	"errors"
	"unicode/utf8"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 50
)

// ValidatePassword checks the length rules applied to new passwords.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return errors.New("password must be between 6 and 50 characters long")
	}
	return nil
}
