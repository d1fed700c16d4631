package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// AppError is the error type every layer of the service returns. The Id is a
// stable dotted identifier for operators, the StatusCode drives the HTTP
// response, and DetailedError carries diagnostics that are logged server-side
// and only optionally echoed to the caller.
type AppError struct {
	Id            string `json:"id"`
	Status        string `json:"status"`
	DetailedError string `json:"detail"`
	StatusCode    int    `json:"code,omitempty"`
	cause         error
}

func (err *AppError) Error() string {
	return fmt.Sprintf("AppError [%s]: %s, %s", err.Id, err.Status, err.DetailedError)
}

func (err *AppError) Unwrap() error {
	return err.cause
}

func (err *AppError) SetStatusCode(code int) *AppError {
	err.StatusCode = code
	err.Status = http.StatusText(code)
	return err
}

func (err *AppError) ToJson() string {
	b, _ := json.Marshal(err)
	return string(b)
}

type Option func(*AppError)

// WithID overrides the error identifier.
func WithID(id string) Option {
	return func(e *AppError) { e.Id = id }
}

// WithCause attaches the underlying error and copies its text into the detail
// if none was given.
func WithCause(cause error) Option {
	return func(e *AppError) {
		e.cause = cause
		if e.DetailedError == "" && cause != nil {
			e.DetailedError = cause.Error()
		}
	}
}

func newAppError(id, details string, code int, opts ...Option) *AppError {
	err := (&AppError{Id: id, DetailedError: details}).SetStatusCode(code)
	for _, opt := range opts {
		opt(err)
	}
	return err
}

// New returns an internal-class error with the given message.
func New(details string, opts ...Option) *AppError {
	return newAppError("app.process.internal", details, http.StatusInternalServerError, opts...)
}

// Internal flags a server-side fault: configuration, filesystem, conversion.
func Internal(details string, opts ...Option) *AppError {
	return newAppError("app.process.internal", details, http.StatusInternalServerError, opts...)
}

// InvalidArgument flags bad client input; no side effects have occurred.
func InvalidArgument(details string, opts ...Option) *AppError {
	return newAppError("app.process.bad_args", details, http.StatusBadRequest, opts...)
}

// Unauthenticated flags a missing or mismatched credential.
func Unauthenticated(details string, opts ...Option) *AppError {
	return newAppError("app.process.unauthenticated", details, http.StatusUnauthorized, opts...)
}

// Busy flags a retryable resource-contention condition. Callers map it to 503
// so clients know to retry rather than report a failure.
func Busy(details string, opts ...Option) *AppError {
	return newAppError("app.process.busy", details, http.StatusServiceUnavailable, opts...)
}

// NewDBInternalError wraps a database-layer failure under a store-scoped id.
func NewDBInternalError(id string, cause error) *AppError {
	return newAppError(id, "", http.StatusInternalServerError, WithCause(cause))
}

// Code extracts the HTTP status class from any error; non-AppError values are
// treated as internal.
func Code(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// ID extracts the stable identifier, if any.
func ID(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Id
	}
	return "app.process.internal"
}

// Details returns operator-facing diagnostics for the error.
func Details(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.DetailedError != "" {
		return appErr.DetailedError
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// Is and As re-export the stdlib helpers so callers need a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
