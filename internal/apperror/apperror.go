package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation error")
	ErrForbidden         = errors.New("forbidden")
	ErrDegradedWrite     = errors.New("degraded write")
	ErrRemoteUnavailable = errors.New("remote store not configured")
	ErrLoadFailed        = errors.New("load failed")
	ErrDeleteFailed      = errors.New("delete failed")
)

// AppError pairs one of the sentinel kinds above with an optional cause.
// errors.Is matches both.
type AppError struct {
	Kind    error
	Cause   error
	Message string // shown to the end user
	Field   string // set for validation errors
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Kind:    ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Kind:    ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Kind:    ErrForbidden,
		Message: message,
	}
}

// DegradedWrite reports that the submission was kept locally only.
func DegradedWrite(reason string, cause error) *AppError {
	return &AppError{
		Kind:    ErrDegradedWrite,
		Cause:   cause,
		Message: reason,
	}
}

func LoadFailed(cause error) *AppError {
	return &AppError{
		Kind:    ErrLoadFailed,
		Cause:   cause,
		Message: "Failed to load submissions. Check remote store configuration.",
	}
}

func DeleteFailed(cause error) *AppError {
	msg := "Delete failed."
	if cause != nil && cause.Error() != "" {
		msg = cause.Error()
	}
	return &AppError{
		Kind:    ErrDeleteFailed,
		Cause:   cause,
		Message: msg,
	}
}
