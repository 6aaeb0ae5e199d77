package web

import (
	"time"

	"github.com/teemow/slotbooker/internal/booking"
)

// view is the data the page template renders.
type view struct {
	ProviderName  string
	Owner         string
	Authenticated bool
	Expires       string

	Pending bool
	AuthURL string

	Notice  string
	Failure string

	Form   booking.Form
	Errors map[string]string
	Booked *booking.Confirmation

	MinDate      string
	MinDuration  int
	MaxDuration  int
	DurationStep int
	Location     string

	location *time.Location
}

func (view) ConnectRoute() string    { return RouteConnect }
func (view) AuthorizeRoute() string  { return RouteAuthorize }
func (view) DisconnectRoute() string { return RouteDisconnect }
func (view) BookRoute() string       { return RouteBook }
func (view) InviteRoute() string     { return RouteInvite }

// FormatTime renders t in the configured location.
func (v view) FormatTime(t time.Time) string {
	loc := v.location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("Mon 2 Jan 2006 15:04 MST")
}
