package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Owner is the identity of the signed-in calendar owner, taken from the
// verified ID token.
type Owner struct {
	Name  string
	Email string
}

// Session is the state of one authorization attempt and, once completed,
// of the authenticated owner. It is never persisted.
type Session struct {
	// Provider is the calendar provider the session was started for.
	Provider string

	// AuthURL is the provider login URL the owner must open.
	AuthURL string

	// State is the anti-forgery value embedded in AuthURL.
	State string

	// RedirectURI is the redirect URI sent with the authorization request.
	RedirectURI string

	// Scopes are the scopes requested by Begin.
	Scopes []string

	// Owner is set when the token response carried a verified ID token.
	Owner Owner

	verifier string
	token    *oauth2.Token
}

// IsAuthenticated reports whether the session holds an access token that has
// not expired at now. A token without expiry never expires.
func (s *Session) IsAuthenticated(now time.Time) bool {
	if s == nil || s.token == nil || s.token.AccessToken == "" {
		return false
	}
	return s.token.Expiry.IsZero() || now.Before(s.token.Expiry)
}

// Pending reports whether Begin has run and Complete has not yet succeeded.
func (s *Session) Pending() bool {
	return s != nil && s.State != "" && s.token == nil
}

// Expiry returns the access token expiry, or the zero time.
func (s *Session) Expiry() time.Time {
	if s == nil || s.token == nil {
		return time.Time{}
	}
	return s.token.Expiry
}

// TokenSource returns a token source serving the session's access token.
// It does not refresh.
func (s *Session) TokenSource() oauth2.TokenSource {
	if s == nil || s.token == nil {
		return oauth2.StaticTokenSource(&oauth2.Token{})
	}
	tok := *s.token
	return oauth2.StaticTokenSource(&tok)
}

func (s *Session) reset() {
	*s = Session{}
}

// GenerateState returns a random state parameter for CSRF protection.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
