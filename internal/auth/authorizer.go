package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"

	"github.com/teemow/slotbooker/internal/config"
	"github.com/teemow/slotbooker/internal/instrumentation"
	"github.com/teemow/slotbooker/internal/logging"
)

// Config configures an Authorizer.
type Config struct {
	// Provider selects the identity platform: config.ProviderMicrosoft or config.ProviderGoogle.
	Provider string

	ClientID     string
	ClientSecret string

	// TenantID is the Microsoft tenant. For Google it is sent as the hosted domain hint.
	TenantID string

	// Scopes are requested when Begin is called without scopes.
	// Empty means DefaultScopes(Provider).
	Scopes []string

	// Endpoint overrides the provider's authorization and token endpoints.
	Endpoint oauth2.Endpoint

	// HTTPClient is used for the token exchange and for fetching signing keys.
	HTTPClient *http.Client

	// IDTokenVerifier overrides the verifier built from the provider's published keys.
	IDTokenVerifier *oidc.IDTokenVerifier

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Authorizer runs the authorization-code grant for the calendar owner.
type Authorizer struct {
	provider   string
	tenant     string
	oauth      oauth2.Config
	scopes     []string
	httpClient *http.Client
	verifier   *oidc.IDTokenVerifier
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// New creates an Authorizer. It fails with config.ErrConfiguration when
// credentials are missing or the provider is unknown.
func New(cfg Config) (*Authorizer, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = config.ProviderMicrosoft
	}

	var missing []string
	if cfg.ClientID == "" {
		missing = append(missing, "CLIENT_ID")
	}
	if cfg.ClientSecret == "" {
		missing = append(missing, "CLIENT_SECRET")
	}
	if cfg.TenantID == "" {
		missing = append(missing, "TENANT_ID")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", config.ErrConfiguration, strings.Join(missing, ", "))
	}

	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" || endpoint.TokenURL == "" {
		switch provider {
		case config.ProviderMicrosoft:
			endpoint = microsoft.AzureADEndpoint(cfg.TenantID)
		case config.ProviderGoogle:
			endpoint = google.Endpoint
		default:
			return nil, fmt.Errorf("%w: unsupported calendar provider %q", config.ErrConfiguration, cfg.Provider)
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes(provider)
	}

	verifier := cfg.IDTokenVerifier
	if verifier == nil {
		verifier = newRemoteVerifier(provider, cfg.TenantID, cfg.ClientID, httpClient)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Authorizer{
		provider: provider,
		tenant:   cfg.TenantID,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
		},
		scopes:     scopes,
		httpClient: httpClient,
		verifier:   verifier,
		metrics:    cfg.Metrics,
		logger:     logging.WithProvider(logger, provider),
		now:        now,
	}, nil
}

// Provider returns the configured provider name.
func (a *Authorizer) Provider() string {
	return a.provider
}

// Begin starts an authorization attempt. Empty scopes select the configured
// defaults. The returned Session carries the login URL and the state that
// Complete will expect back.
func (a *Authorizer) Begin(scopes []string, redirectURI string) (*Session, error) {
	if strings.TrimSpace(redirectURI) == "" {
		return nil, fmt.Errorf("%w: missing REDIRECT_URI", config.ErrConfiguration)
	}
	if len(scopes) == 0 {
		scopes = a.scopes
	}

	state, err := GenerateState()
	if err != nil {
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	conf := a.oauthConfig(scopes, redirectURI)
	opts := []oauth2.AuthCodeOption{
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	}
	if a.provider == config.ProviderGoogle {
		opts = append(opts, oauth2.AccessTypeOffline)
		if strings.Contains(a.tenant, ".") {
			opts = append(opts, oauth2.SetAuthURLParam("hd", a.tenant))
		}
	}

	s := &Session{
		Provider:    a.provider,
		AuthURL:     conf.AuthCodeURL(state, opts...),
		State:       state,
		RedirectURI: redirectURI,
		Scopes:      append([]string(nil), scopes...),
		verifier:    verifier,
	}

	a.logger.Debug("authorization started",
		logging.Operation("auth.begin"),
		slog.Int("scopes", len(scopes)),
	)
	return s, nil
}

// Complete finishes the attempt started by Begin using the redirect URL the
// provider sent the owner to. On success the session becomes authenticated,
// its state is consumed and the token is returned. A session that is already
// authenticated is never touched and fails with ErrAlreadyAuthenticated. Any
// other failure resets the session.
func (a *Authorizer) Complete(ctx context.Context, s *Session, returnedURL string) (*oauth2.Token, error) {
	logger := logging.WithOperation(a.logger, "auth.complete")

	if s.IsAuthenticated(a.now()) {
		a.metrics.RecordOAuthAuthorization(ctx, instrumentation.AuthResultStateMismatch)
		logger.Warn("redirect ignored, session already authenticated")
		return nil, ErrAlreadyAuthenticated
	}

	tok, result, err := a.complete(ctx, s, returnedURL)
	a.metrics.RecordOAuthAuthorization(ctx, result)
	if err != nil {
		if s != nil {
			s.reset()
		}
		logger.Warn("authorization failed", logging.Status(result), logging.Err(err))
		return nil, err
	}

	logger.Info("authorization completed",
		logging.Status(result),
		logging.UserHash(s.Owner.Email),
		slog.Time("expiry", tok.Expiry),
	)
	logger.Debug("access token issued", slog.String("access_token", logging.SanitizeToken(tok.AccessToken)))
	return tok, nil
}

func (a *Authorizer) complete(ctx context.Context, s *Session, returnedURL string) (*oauth2.Token, string, error) {
	if s == nil || s.State == "" {
		return nil, instrumentation.AuthResultStateMismatch,
			fmt.Errorf("%w: no authorization in progress", ErrStateMismatch)
	}

	redirect, err := ParseRedirect(returnedURL)
	if err != nil {
		return nil, instrumentation.AuthResultStateMismatch, fmt.Errorf("%w: %w", ErrStateMismatch, err)
	}
	if redirect.State != s.State {
		return nil, instrumentation.AuthResultStateMismatch, ErrStateMismatch
	}
	if redirect.Error != "" {
		return nil, instrumentation.AuthResultInvalidGrant, &GrantError{
			Code:        redirect.Error,
			Description: redirect.ErrorDescription,
		}
	}
	if redirect.Code == "" {
		return nil, instrumentation.AuthResultInvalidGrant, &GrantError{
			Code:        "invalid_request",
			Description: "redirect carries no authorization code",
		}
	}

	tok, err := a.exchange(ctx, s, redirect.Code)
	if err != nil {
		if errors.Is(err, ErrInvalidGrant) {
			return nil, instrumentation.AuthResultInvalidGrant, err
		}
		return nil, instrumentation.AuthResultFailure, err
	}

	owner, err := a.identity(ctx, s, tok)
	if err != nil {
		return nil, instrumentation.AuthResultInvalidGrant, &GrantError{
			Code:        "invalid_id_token",
			Description: err.Error(),
		}
	}

	s.token = tok
	s.Owner = owner
	s.State = ""
	s.verifier = ""
	s.AuthURL = ""
	return tok, instrumentation.AuthResultSuccess, nil
}

func (a *Authorizer) exchange(ctx context.Context, s *Session, code string) (*oauth2.Token, error) {
	ctx, span := instrumentation.StartCalendarAPISpan(ctx, a.provider, instrumentation.OperationExchangeToken)
	defer span.End()

	start := a.now()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	conf := a.oauthConfig(s.Scopes, s.RedirectURI)
	tok, err := conf.Exchange(ctx, code, oauth2.VerifierOption(s.verifier))

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	a.metrics.RecordCalendarAPIOperation(ctx, a.provider, instrumentation.OperationExchangeToken, status, a.now().Sub(start))

	if err != nil {
		instrumentation.SetSpanError(span, err)
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			ge := &GrantError{Code: re.ErrorCode, Description: re.ErrorDescription}
			if re.Response != nil {
				ge.Status = re.Response.StatusCode
			}
			if ge.Code == "" {
				ge.Code = "invalid_grant"
				ge.Description = strings.TrimSpace(string(re.Body))
			}
			return nil, ge
		}
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	instrumentation.SetSpanSuccess(span)
	return tok, nil
}

// identity verifies the ID token when the openid scope was requested.
func (a *Authorizer) identity(ctx context.Context, s *Session, tok *oauth2.Token) (Owner, error) {
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		if hasScope(s.Scopes, oidc.ScopeOpenID) {
			a.logger.Debug("token response carries no id_token", logging.Operation("auth.identity"))
		}
		return Owner{}, nil
	}
	ctx = oidc.ClientContext(ctx, a.httpClient)
	return verifyIdentity(ctx, a.verifier, raw)
}

func (a *Authorizer) oauthConfig(scopes []string, redirectURI string) *oauth2.Config {
	conf := a.oauth
	conf.Scopes = scopes
	conf.RedirectURL = redirectURI
	return &conf
}
