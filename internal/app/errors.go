package app

import "errors"

var (
	// ErrUnauthorized indicates a payload whose verification token does not
	// match the configured value.
	ErrUnauthorized = errors.New("verification token mismatch")
	// ErrInvalidQuestion indicates an interactive action whose callback id is
	// not a known question key.
	ErrInvalidQuestion = errors.New("unknown question key")
	// ErrInvalidAnswer indicates an interactive action whose answer value is
	// not an integer.
	ErrInvalidAnswer = errors.New("answer value is not an integer")
)
