package web

// Route paths.
const (
	RouteIndex      = "/"
	RouteConnect    = "/connect"
	RouteAuthorize  = "/authorize"
	RouteCallback   = "/auth/callback"
	RouteDisconnect = "/disconnect"
	RouteBook       = "/book"
	RouteInvite     = "/invite.ics"
)

// Form field carrying the pasted redirect URL.
const fieldRedirectURL = "redirect_url"
