package validator

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLength        = 255
	maxDescriptionLength = 1000
)

// Name validates the display name of a tenant, project, directory or prompt.
func Name(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errors.New("name is required")
	}
	if utf8.RuneCountInString(trimmed) > maxNameLength {
		return errors.New("name must be at most 255 characters")
	}
	return nil
}

// Description validates an optional free-text description.
func Description(description *string) error {
	if description == nil {
		return nil
	}
	if utf8.RuneCountInString(*description) > maxDescriptionLength {
		return errors.New("description must be at most 1000 characters")
	}
	return nil
}

// Email performs a shallow shape check; the identity provider owns real
// address verification.
func Email(email string) error {
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return errors.New("invalid email format")
	}
	if !strings.Contains(parts[1], ".") {
		return errors.New("invalid email domain")
	}
	return nil
}
