package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAccessToken is returned when a redirect fragment carries no
	// usable access token. Nothing is written to the store.
	ErrMissingAccessToken = errors.New("missing access token in redirect")

	// ErrNotSignedIn is returned when no access token is stored. It is
	// detected before any network request is made.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrRefreshUnavailable is returned when a refresh is needed but no
	// refresh token is stored.
	ErrRefreshUnavailable = errors.New("no refresh token available")
)

// RefreshRejectedError is returned when the refresh endpoint answers with a
// non-2xx status. The stored tokens are left untouched.
type RefreshRejectedError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *RefreshRejectedError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("token refresh rejected with status %d", e.StatusCode)
	}
	return fmt.Sprintf("token refresh rejected with status %d: %s", e.StatusCode, e.Body)
}

// IsReauthRequired reports whether err means the user has to log in again.
func IsReauthRequired(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotSignedIn) || errors.Is(err, ErrRefreshUnavailable) {
		return true
	}
	var rejected *RefreshRejectedError
	return errors.As(err, &rejected)
}
