package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrInvalidRole       = errors.New("invalid role")

	// ErrSessionInvalid is returned when a session token is unknown,
	// expired, or malformed.
	ErrSessionInvalid = errors.New("session invalid")

	// ErrAuthRequired means the request carried no usable session.
	ErrAuthRequired = errors.New("authentication required")

	// ErrPermissionDenied means the caller is authenticated but its role
	// does not allow the operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrStoreUnavailable signals a backing-store failure. It is fatal for
	// the request and surfaces as a 5xx at the HTTP boundary.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ValidationError reports the request fields that were missing or empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// NewValidationError builds a ValidationError from field names, preserving
// the order in which they were checked.
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}
