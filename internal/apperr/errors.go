package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrQuizNotAvailable = errors.New("quiz is not available")
	ErrMaxAttempts      = errors.New("maximum attempts exceeded")
	ErrAlreadySubmitted = errors.New("attempt already submitted")
	ErrNotPublished     = errors.New("quiz is not published")
	ErrBadTransition    = errors.New("invalid status transition")
	ErrNotEnrolled      = errors.New("student is not enrolled in course")
)

// ValidationError reports a rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
