package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an id or confirmation token matches no record.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned for missing required input.
	ErrValidation = errors.New("validation failed")

	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned when an admin token fails verification.
	ErrInvalidToken = errors.New("invalid token")

	ErrUnknownCollection = errors.New("unknown collection")
)

// FieldError names the required field that was missing.
type FieldError struct {
	Field string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("Missing required field: %s", e.Field)
}

func (e FieldError) Unwrap() error { return ErrValidation }
