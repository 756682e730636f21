package service

import (
	"errors"
	"strings"
)

// Auth service errors. Handlers map these to HTTP status codes.
var (
	ErrValidation           = errors.New("validation failed")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrHashing              = errors.New("password hashing failed")
	ErrDirectoryUnavailable = errors.New("user directory unavailable")
)

// Error codes attached to internal failures.
const (
	CodeHashFailed           = "AUTH_HASH_FAILED"
	CodeDirectoryUnavailable = "DIRECTORY_UNAVAILABLE"
	CodeTokenSignFailed      = "TOKEN_SIGN_FAILED"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that failed validation.
// errors.Is(err, ErrValidation) reports true for it.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

// Is makes ValidationError match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
