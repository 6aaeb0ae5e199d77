package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrStateMismatch is returned when the state in the redirect differs from
	// the state generated by Begin, or when no authorization is in progress.
	ErrStateMismatch = errors.New("state mismatch")

	// ErrAlreadyAuthenticated is returned when a redirect arrives for a
	// session that already holds a valid token. The session is left intact.
	// It matches ErrStateMismatch.
	ErrAlreadyAuthenticated = fmt.Errorf("%w: session is already authenticated", ErrStateMismatch)

	// ErrInvalidGrant is returned when the provider rejects the authorization
	// or the code exchange. The concrete error is a *GrantError.
	ErrInvalidGrant = errors.New("invalid grant")

	// ErrNoRedirectParams is returned by ParseRedirect when the input carries
	// none of code, state or error.
	ErrNoRedirectParams = errors.New("no authorization parameters found in redirect")
)

// GrantError carries the OAuth error reported by the provider, either in the
// redirect or in the token endpoint response.
type GrantError struct {
	Code        string // OAuth error code (e.g., "invalid_grant", "access_denied")
	Description string // Provider supplied description, verbatim
	Status      int    // HTTP status of the token response, 0 for redirect errors
}

// Error implements the error interface
func (e *GrantError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("authorization rejected: %s", e.Code)
	}
	return fmt.Sprintf("authorization rejected: %s: %s", e.Code, e.Description)
}

// Is makes every GrantError match ErrInvalidGrant.
func (e *GrantError) Is(target error) bool {
	return target == ErrInvalidGrant
}
