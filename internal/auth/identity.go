package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"

	"github.com/teemow/slotbooker/internal/config"
)

const (
	googleIssuer = "https://accounts.google.com"
	googleJWKS   = "https://www.googleapis.com/oauth2/v3/certs"

	microsoftIssuerFormat = "https://login.microsoftonline.com/%s/v2.0"
	microsoftJWKSFormat   = "https://login.microsoftonline.com/%s/discovery/v2.0/keys"
)

// idTokenClaims are the identity claims read from the ID token.
type idTokenClaims struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
}

// newRemoteVerifier builds an ID token verifier backed by the provider's
// published signing keys. Keys are fetched lazily on first verification.
//
// Microsoft tokens carry the tenant GUID as issuer, so the issuer is only
// pinned when the configured tenant is a GUID.
func newRemoteVerifier(provider, tenant, clientID string, client *http.Client) *oidc.IDTokenVerifier {
	ctx := oidc.ClientContext(context.Background(), client)

	if provider == config.ProviderGoogle {
		keys := oidc.NewRemoteKeySet(ctx, googleJWKS)
		return oidc.NewVerifier(googleIssuer, keys, &oidc.Config{ClientID: clientID})
	}

	keys := oidc.NewRemoteKeySet(ctx, fmt.Sprintf(microsoftJWKSFormat, tenant))
	if _, err := uuid.Parse(tenant); err == nil {
		return oidc.NewVerifier(fmt.Sprintf(microsoftIssuerFormat, tenant), keys, &oidc.Config{ClientID: clientID})
	}
	return oidc.NewVerifier("", keys, &oidc.Config{ClientID: clientID, SkipIssuerCheck: true})
}

// verifyIdentity verifies rawIDToken and returns the owner it names.
func verifyIdentity(ctx context.Context, verifier *oidc.IDTokenVerifier, rawIDToken string) (Owner, error) {
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Owner{}, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return Owner{}, fmt.Errorf("failed to decode ID token claims: %w", err)
	}

	owner := Owner{Name: claims.Name, Email: claims.Email}
	if owner.Email == "" {
		owner.Email = claims.PreferredUsername
	}
	return owner, nil
}
