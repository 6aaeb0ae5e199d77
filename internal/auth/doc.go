// Package auth implements the calendar owner's OAuth2 authorization-code
// flow against Microsoft identity platform or Google.
//
// The flow has two phases. Begin produces a Session holding the provider
// login URL, a fresh state value and a PKCE verifier. After the owner logs
// in, the provider redirects to the configured redirect URI; the full
// redirect URL (pasted by hand or captured by the callback route) is given
// to Complete, which checks the state, exchanges the code and stores the
// token pair in the Session.
//
// Any failure in Complete resets the Session, so authorization restarts
// from Begin. Sessions are plain values and are not safe for concurrent use;
// callers serving concurrent requests must serialize access.
//
// Example:
//
//	a, err := auth.New(auth.Config{
//		Provider:     config.ProviderMicrosoft,
//		ClientID:     cfg.ClientID,
//		ClientSecret: cfg.ClientSecret,
//		TenantID:     cfg.TenantID,
//	})
//	s, err := a.Begin(nil, cfg.RedirectURI)
//	fmt.Println("Open:", s.AuthURL)
//	_, err = a.Complete(ctx, s, pastedURL)
//	if s.IsAuthenticated(time.Now()) { ... }
package auth
