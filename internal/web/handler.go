package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/slotbooker/internal/auth"
	"github.com/teemow/slotbooker/internal/booking"
	"github.com/teemow/slotbooker/internal/config"
	"github.com/teemow/slotbooker/internal/logging"
)

// Authorizer runs the owner's authorization. *auth.Authorizer satisfies it.
type Authorizer interface {
	Provider() string
	Begin(scopes []string, redirectURI string) (*auth.Session, error)
	Complete(ctx context.Context, s *auth.Session, returnedURL string) (*oauth2.Token, error)
}

// Submitter creates bookings. *booking.Submitter satisfies it.
type Submitter interface {
	Submit(ctx context.Context, session booking.Session, req booking.Request) (*booking.Confirmation, error)
}

// Config configures a Handler.
type Config struct {
	Authorizer  Authorizer
	Submitter   Submitter
	RedirectURI string

	// Scopes are passed to Begin; empty selects the authorizer's defaults.
	Scopes []string

	// Location is the zone form dates and times are read in. Defaults to UTC.
	Location *time.Location

	// OwnerName is shown when the ID token carried no name.
	OwnerName string

	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler serves the booking page and holds the operator's session.
type Handler struct {
	authorizer  Authorizer
	submitter   Submitter
	redirectURI string
	scopes      []string
	location    *time.Location
	ownerName   string
	logger      *slog.Logger
	now         func() time.Time

	page *template.Template
	mux  *http.ServeMux

	// mu serializes every operation on the session.
	mu      sync.Mutex
	session *auth.Session
	flash   flash
	booked  *booking.Confirmation
}

// flash is shown once on the next page render.
type flash struct {
	notice  string
	failure string
}

// NewHandler creates a Handler with its routes registered.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Authorizer == nil || cfg.Submitter == nil {
		return nil, errors.New("web: authorizer and submitter are required")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	page, err := parseTemplate("index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	h := &Handler{
		authorizer:  cfg.Authorizer,
		submitter:   cfg.Submitter,
		redirectURI: cfg.RedirectURI,
		scopes:      cfg.Scopes,
		location:    cfg.Location,
		ownerName:   cfg.OwnerName,
		logger:      logging.WithProvider(cfg.Logger, cfg.Authorizer.Provider()),
		now:         cfg.Now,
		page:        page,
		mux:         http.NewServeMux(),
	}

	h.mux.HandleFunc("GET "+RouteIndex+"{$}", h.index)
	h.mux.HandleFunc("POST "+RouteConnect, h.connect)
	h.mux.HandleFunc("POST "+RouteAuthorize, h.authorize)
	h.mux.HandleFunc("GET "+RouteCallback, h.callback)
	h.mux.HandleFunc("POST "+RouteDisconnect, h.disconnect)
	h.mux.HandleFunc("POST "+RouteBook, h.book)
	h.mux.HandleFunc("GET "+RouteInvite, h.invite)
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Authenticated reports whether the operator session holds a valid token.
func (h *Handler) Authenticated() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session.IsAuthenticated(h.now())
}

func (h *Handler) index(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	v := h.view()
	v.Form = booking.DefaultForm(h.now(), h.location)
	h.mu.Unlock()

	h.render(w, http.StatusOK, v)
}

func (h *Handler) connect(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, err := h.authorizer.Begin(h.scopes, h.redirectURI)
	if err != nil {
		h.logger.Error("Failed to start authorization", logging.Operation("web.connect"), logging.Err(err))
		h.flash.failure = "Could not start sign-in: " + err.Error()
		h.redirectHome(w, r)
		return
	}

	h.session = session
	h.booked = nil
	h.redirectHome(w, r)
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	h.complete(w, r, r.PostFormValue(fieldRedirectURL))
}

// callback receives the provider redirect directly.
func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	h.complete(w, r, r.URL.RequestURI())
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request, returnedURL string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.authorizer.Complete(r.Context(), h.session, returnedURL); err != nil {
		if errors.Is(err, auth.ErrAlreadyAuthenticated) {
			h.flash.notice = "Calendar is already connected."
			h.redirectHome(w, r)
			return
		}
		h.flash.failure = authFailureMessage(err)
		h.redirectHome(w, r)
		return
	}

	h.flash.notice = "Calendar connected."
	if name := h.owner(); name != "" {
		h.flash.notice = "Calendar connected as " + name + "."
	}
	h.redirectHome(w, r)
}

func (h *Handler) disconnect(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.session = nil
	h.booked = nil
	h.flash.notice = "Disconnected."
	h.redirectHome(w, r)
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := booking.Form{
		Date:          r.PostFormValue(booking.FieldDate),
		Time:          r.PostFormValue(booking.FieldTime),
		Duration:      r.PostFormValue(booking.FieldDuration),
		Subject:       r.PostFormValue(booking.FieldSubject),
		AttendeeEmail: r.PostFormValue(booking.FieldAttendee),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.session.IsAuthenticated(h.now()) {
		h.flash.failure = "Your calendar is not connected. Connect it before booking."
		h.redirectHome(w, r)
		return
	}

	req, errs := booking.ValidateAll(form, h.now(), h.location)
	if len(errs) > 0 {
		v := h.view()
		v.Form = form
		v.Errors = make(map[string]string, len(errs))
		for _, e := range errs {
			v.Errors[e.Field] = e.Message
			h.logger.Debug("Booking form rejected", logging.Operation("web.book"), logging.Field(e.Field))
		}
		h.render(w, http.StatusUnprocessableEntity, v)
		return
	}

	conf, err := h.submitter.Submit(r.Context(), h.session, req)
	if err != nil {
		if errors.Is(err, booking.ErrNotAuthenticated) {
			h.flash.failure = "Your calendar session has expired. Connect again before booking."
			h.redirectHome(w, r)
			return
		}

		v := h.view()
		v.Form = form
		v.Failure = bookingFailureMessage(err)

		var vErr *booking.ValidationError
		if errors.As(err, &vErr) {
			v.Errors = map[string]string{vErr.Field: vErr.Message}
			h.render(w, http.StatusUnprocessableEntity, v)
			return
		}
		h.render(w, http.StatusBadGateway, v)
		return
	}

	h.booked = conf
	v := h.view()
	v.Notice = "Meeting booked."
	v.Booked = conf
	v.Form = booking.DefaultForm(h.now(), h.location)
	h.render(w, http.StatusOK, v)
}

// invite serves the last booking as an iCalendar file.
func (h *Handler) invite(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	conf := h.booked
	organizer := ""
	if h.session != nil {
		organizer = h.session.Owner.Email
	}
	h.mu.Unlock()

	if conf == nil {
		http.Error(w, "no booking to export", http.StatusNotFound)
		return
	}

	raw, err := conf.ICS(organizer, h.now())
	if err != nil {
		h.logger.Error("Failed to render invite", logging.Operation("web.invite"), logging.Err(err))
		http.Error(w, "failed to render invite", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+conf.Filename()+`"`)
	_, _ = w.Write(raw)
}

func (h *Handler) redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, RouteIndex, http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, status int, v view) {
	var buf strings.Builder
	if err := h.page.Execute(&buf, v); err != nil {
		h.logger.Error("Failed to render page", logging.Err(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

// owner returns the display name of the signed-in owner. Callers hold mu.
func (h *Handler) owner() string {
	if h.session != nil {
		if h.session.Owner.Name != "" {
			return h.session.Owner.Name
		}
		if h.session.Owner.Email != "" {
			return h.session.Owner.Email
		}
	}
	return h.ownerName
}

// view builds the page state and consumes the flash. Callers hold mu.
func (h *Handler) view() view {
	now := h.now()
	v := view{
		ProviderName:  providerName(h.authorizer.Provider()),
		Authenticated: h.session.IsAuthenticated(now),
		Pending:       h.session.Pending(),
		Notice:        h.flash.notice,
		Failure:       h.flash.failure,
		MinDate:       now.In(h.location).Format(booking.DateLayout),
		MinDuration:   booking.MinDuration,
		MaxDuration:   booking.MaxDuration,
		DurationStep:  booking.DurationStep,
		Location:      h.location.String(),
		location:      h.location,
	}
	h.flash = flash{}

	if v.Authenticated {
		v.Owner = h.owner()
		if exp := h.session.Expiry(); !exp.IsZero() {
			v.Expires = v.FormatTime(exp)
		}
	}
	if v.Pending {
		v.AuthURL = h.session.AuthURL
	}
	return v
}

func providerName(provider string) string {
	switch provider {
	case config.ProviderGoogle:
		return "Google Calendar"
	default:
		return "Microsoft 365"
	}
}

func authFailureMessage(err error) string {
	var grantErr *auth.GrantError
	switch {
	case errors.Is(err, auth.ErrStateMismatch):
		return "The pasted URL does not belong to the current sign-in attempt. Start the sign-in again."
	case errors.As(err, &grantErr):
		msg := "The provider rejected the sign-in (" + grantErr.Code + ")"
		if grantErr.Description != "" {
			msg += ": " + grantErr.Description
		}
		return msg + ". Start the sign-in again."
	default:
		return "Sign-in failed: " + err.Error() + ". Start the sign-in again."
	}
}

func bookingFailureMessage(err error) string {
	var subErr *booking.SubmissionError
	if errors.As(err, &subErr) {
		return "The meeting could not be created: " + subErr.Detail()
	}
	return "The meeting could not be created: " + err.Error()
}
