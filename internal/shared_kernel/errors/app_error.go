package apperrors

import stderrors "errors"

type Type string

const (
	TypeValidation   Type = "validation"
	TypeUnauthorized Type = "unauthorized"
	TypeNotFound     Type = "not_found"
	TypeConflict     Type = "conflict"
	TypeUnavailable  Type = "unavailable"
	TypeInternal     Type = "internal"
)

type AppError struct {
	Type    Type           `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

// Is matches on Code so callers can use errors.Is against a sentinel built
// with the same code.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !stderrors.As(target, &other) || e == nil || other == nil {
		return false
	}
	return e.Code == other.Code
}

func NewInternal(code, message string, details map[string]any) *AppError {
	return newAppError(TypeInternal, code, message, details)
}

func NewValidation(code, message string, details map[string]any) *AppError {
	return newAppError(TypeValidation, code, message, details)
}

func NewUnauthorized(code, message string, details map[string]any) *AppError {
	return newAppError(TypeUnauthorized, code, message, details)
}

func NewNotFound(code, message string, details map[string]any) *AppError {
	return newAppError(TypeNotFound, code, message, details)
}

func NewConflict(code, message string, details map[string]any) *AppError {
	return newAppError(TypeConflict, code, message, details)
}

func NewUnavailable(code, message string, details map[string]any) *AppError {
	return newAppError(TypeUnavailable, code, message, details)
}

// From converts an arbitrary error into an AppError, keeping it untouched when
// it already is one.
func From(err error, code string, message string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr != nil {
		return appErr
	}
	return NewInternal(code, message, map[string]any{"error": err.Error()})
}

func newAppError(errorType Type, code, message string, details map[string]any) *AppError {
	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: details,
	}
}
