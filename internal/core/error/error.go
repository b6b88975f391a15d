package errx

import (
	"errors"
	"fmt"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "внутренняя ошибка, попробуйте позже"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
)

// Kind classifies an AppError. It implements error so callers can match
// with errors.Is(err, errx.InvalidInput).
type Kind string

func (k Kind) Error() string {
	return string(k)
}

const (
	// InvalidInput marks malformed user-supplied text.
	InvalidInput Kind = "invalid_input"
	// UnknownRegime marks a tax regime lookup miss.
	UnknownRegime Kind = "unknown_regime"
	// UnsupportedDocumentType marks a document type that cannot be generated.
	UnsupportedDocumentType Kind = "unsupported_document_type"
	// MissingColumns marks a spreadsheet without the required columns.
	MissingColumns Kind = "missing_columns"
	// TransportFailure marks a network or timeout fault talking to the reasoning service.
	TransportFailure Kind = "transport_failure"
	// ServiceDegraded marks exhausted retries with no local fallback.
	ServiceDegraded Kind = "service_degraded"
	// StorageFailure marks a conversation state store fault.
	StorageFailure Kind = "storage_failure"
)

// AppError wraps an underlying error with a kind and a safe, user-facing message.
type AppError struct {
	Kind    Kind
	Err     error
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(kind Kind, err error, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Err:     err,
		Message: message,
	}
}

// Newf creates an AppError without an underlying cause.
func Newf(kind Kind, format string, args ...any) *AppError {
	return &AppError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Is reports whether the target is this error's Kind or matches the underlying error.
func (e *AppError) Is(target error) bool {
	if k, ok := target.(Kind); ok {
		return e.Kind == k
	}
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}

// KindOf returns the Kind of the first AppError in the chain, or "" when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// UserMessage returns the text that may be shown to a user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return SystemErrorMessage
}
