package validation

import (
	"errors"
	"strings"
)

// ErrRequired is returned for blank required fields.
var ErrRequired = errors.New("This field is required.")

// ValidateText requires at least one non-space character.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrRequired
	}
	return nil
}
