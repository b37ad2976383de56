// Package apierrors defines the error taxonomy shared by the registry and
// readiness APIs, and its mapping onto HTTP status codes.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError indicates malformed or incomplete input. Always
// caller-fixable. Source and Row locate the offending record when the input
// was tabular (Row is the 1-based source line) or a JSON array (1-based
// index); Row 0 means the error is not row-specific.
type ValidationError struct {
	Code    string
	Source  string
	Row     int
	Message string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Source != "" && e.Row > 0:
		return fmt.Sprintf("%s: %s row %d: %s", e.Code, e.Source, e.Row, e.Message)
	case e.Source != "":
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Source, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// NotFoundError indicates an unknown project, framework, or version reference.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// ConflictError indicates a concurrent-write conflict the serialization
// strategy could not resolve.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// PersistenceError wraps an underlying store failure. Its detail is logged
// server-side, never exposed to the caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// HTTPStatus maps a taxonomy error to its HTTP status code. Unrecognized
// errors map to 500.
func HTTPStatus(err error) int {
	var (
		validation  *ValidationError
		notFound    *NotFoundError
		conflict    *ConflictError
		persistence *PersistenceError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &persistence):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the caller-facing message for an error. Persistence
// failures are collapsed to a generic message.
func PublicMessage(err error) string {
	var persistence *PersistenceError
	if errors.As(err, &persistence) {
		return "internal storage error"
	}
	return err.Error()
}
