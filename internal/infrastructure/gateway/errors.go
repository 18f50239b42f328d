package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the gateway rejects the bearer token (401/403)
	ErrUnauthorized = errors.New("gateway rejected credentials")
	// ErrUpstream is returned for any other failed gateway call
	ErrUpstream = errors.New("gateway request failed")
)

// StatusError carries the status and a body excerpt of a failed call.
// It unwraps to ErrUnauthorized or ErrUpstream.
type StatusError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode == 401 || e.StatusCode == 403 {
		return ErrUnauthorized
	}
	return ErrUpstream
}

const maxErrorBody = 256

func newStatusError(status int, path string, body []byte) *StatusError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &StatusError{StatusCode: status, Path: path, Body: string(body)}
}
