package inventory

import (
	"errors"
	"fmt"
)

// AuthError indicates that the backend rejected the configured token.
// It is returned when a 401 response is received.
type AuthError struct {
	BaseURL string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf(
		"authentication failed (401): check the API token for %s", e.BaseURL,
	)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// StatusError is returned for any other non-2xx response. The backend's
// status codes only carry success or failure, so no body decoding is
// attempted beyond keeping it for the log.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf(
		"unexpected status %d on %s %s: %s",
		e.StatusCode, e.Method, e.Path, e.Body,
	)
}

// IsStatusError reports whether err (or any error in its chain) is a
// StatusError, i.e. the backend answered but not with success.
func IsStatusError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr)
}
