package auth

import "github.com/teemow/slotbooker/internal/config"

// MicrosoftScopes are requested when no scopes are configured for Microsoft.
//
//   - openid, profile, email: ID token with the owner's identity
//   - offline_access: refresh token
//   - Calendars.ReadWrite: create events in the default calendar
//   - OnlineMeetings.ReadWrite: attach Teams meetings to events
//   - User.Read: basic profile of the signed-in owner
var MicrosoftScopes = []string{
	"openid",
	"profile",
	"email",
	"offline_access",
	"Calendars.ReadWrite",
	"OnlineMeetings.ReadWrite",
	"User.Read",
}

// GoogleScopes are requested when no scopes are configured for Google.
var GoogleScopes = []string{
	"openid",
	"email",
	"profile",
	"https://www.googleapis.com/auth/calendar.events",
}

// DefaultScopes returns a copy of the default scopes for provider.
func DefaultScopes(provider string) []string {
	var scopes []string
	switch provider {
	case config.ProviderGoogle:
		scopes = GoogleScopes
	default:
		scopes = MicrosoftScopes
	}
	out := make([]string, len(scopes))
	copy(out, scopes)
	return out
}

func hasScope(scopes []string, want string) bool {
	for _, s := range scopes {
		if s == want {
			return true
		}
	}
	return false
}
