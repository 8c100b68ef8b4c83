// Package validation checks user-supplied form values before they reach storage.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MaxUsernameLength = 150
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxEmailLength    = 254
)

var usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)

// Usernames that would shadow a top-level route.
var reservedUsernames = map[string]struct{}{
	"auth":    {},
	"new":     {},
	"follow":  {},
	"group":   {},
	"media":   {},
	"static":  {},
	"health":  {},
	"metrics": {},
	"admin":   {},
}

// ValidateUsername allows letters, digits and @/./+/-/_ up to 150 characters.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("This field is required.")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return fmt.Errorf("Ensure this value has at most %d characters.", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}
	if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		return errors.New("This username is reserved.")
	}
	return nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("This field is required.")
	}
	if len(email) > MaxEmailLength {
		return fmt.Errorf("Ensure this value has at most %d characters.", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return errors.New("Enter a valid email address.")
	}
	return nil
}

// ValidatePassword enforces a length window and rejects all-digit passwords.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return fmt.Errorf("This password is too short. It must contain at least %d characters.", MinPasswordLength)
	}
	if n > MaxPasswordLength {
		return fmt.Errorf("This password is too long. It must contain at most %d characters.", MaxPasswordLength)
	}
	if strings.Trim(password, "0123456789") == "" {
		return errors.New("This password is entirely numeric.")
	}
	return nil
}
