package rest

import (
	"errors"
	"fmt"
)

// Sentinel errors for the explicitly mapped HTTP status codes. Callers may
// match them with errors.Is, e.g. treating ErrNotFound as "does not exist
// yet" when deciding create-vs-update. Any other HTTP error surfaces as a
// bare *StatusError and is fatal by default.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// StatusError is a typed wrapper over a non-2xx HTTP response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.Code, truncate(e.Body, 200))
}

// Unwrap maps the five translated status codes onto their sentinels so that
// errors.Is works across the package boundary.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case 400:
		return ErrBadRequest
	case 401:
		return ErrUnauthorized
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	case 409:
		return ErrConflict
	default:
		return nil
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
