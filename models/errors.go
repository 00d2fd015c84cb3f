package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrExhausted is returned when a finite-use invite has no uses left.
	// Inside the commit transaction it aborts the whole operation.
	ErrExhausted = errors.New("invite has no remaining uses")
	ErrNotActive = errors.New("invite is not active")
	ErrExpired   = errors.New("invite has expired")
)

// ValidationError carries the violated constraint and, where safe to echo
// back, the allowed set so callers can self-correct.
type ValidationError struct {
	Field   string
	Message string
	Allowed []string
}

func (e *ValidationError) Error() string {
	if len(e.Allowed) > 0 {
		return fmt.Sprintf("%s (allowed: %s)", e.Message, strings.Join(e.Allowed, ", "))
	}
	return e.Message
}

func NewValidationError(field, message string, allowed ...string) *ValidationError {
	return &ValidationError{Field: field, Message: message, Allowed: allowed}
}
