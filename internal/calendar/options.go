package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"

	"github.com/teemow/slotbooker/internal/config"
	"github.com/teemow/slotbooker/internal/instrumentation"
	"github.com/teemow/slotbooker/internal/logging"
)

// DefaultTimeout bounds a single create request.
const DefaultTimeout = 30 * time.Second

// Options holds the plumbing shared by both providers.
type Options struct {
	// BaseURL overrides the provider API root.
	BaseURL string

	// HTTPClient supplies the base transport and timeout. Its transport is
	// wrapped with tracing and OAuth2 authorization.
	HTTPClient *http.Client

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// NewCreator returns the Creator for the configured provider.
func NewCreator(cfg config.Config, opts Options) (Creator, error) {
	switch cfg.Provider {
	case config.ProviderMicrosoft, "":
		if opts.BaseURL == "" {
			opts.BaseURL = cfg.GraphBaseURL
		}
		return NewGraphClient(opts), nil
	case config.ProviderGoogle:
		return NewGoogleClient(cfg.GoogleCalendarID, opts), nil
	default:
		return nil, fmt.Errorf("%w: unsupported calendar provider %q", config.ErrConfiguration, cfg.Provider)
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// authorizedClient returns an HTTP client that authorizes every request
// from ts. HTTP/2 is disabled on the default transport.
func (o Options) authorizedClient(ts oauth2.TokenSource) *http.Client {
	var base http.RoundTripper
	timeout := DefaultTimeout
	if o.HTTPClient != nil {
		base = o.HTTPClient.Transport
		if o.HTTPClient.Timeout > 0 {
			timeout = o.HTTPClient.Timeout
		}
	}
	if base == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ForceAttemptHTTP2 = false
		base = transport
	}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: ts,
			Base:   otelhttp.NewTransport(base),
		},
		Timeout: timeout,
	}
}

// observe wraps one create call with a client span, metrics and a debug log.
func (o Options) observe(ctx context.Context, provider string, event Event, call func(context.Context) (*CreatedEvent, error)) (*CreatedEvent, error) {
	attrs := instrumentation.NewSpanAttributeBuilder().
		WithDuration(int(event.End.Sub(event.Start).Minutes())).
		WithAttendee(len(event.Attendees) > 0).
		Build()
	ctx, span := instrumentation.StartCalendarAPISpan(ctx, provider, instrumentation.OperationCreateEvent, attrs...)
	defer span.End()

	start := time.Now()
	created, err := call(ctx)
	elapsed := time.Since(start)

	logger := logging.WithProvider(o.logger(), provider)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		o.Metrics.RecordCalendarAPIOperation(ctx, provider, instrumentation.OperationCreateEvent, instrumentation.StatusError, elapsed)
		logger.Debug("create event failed", logging.Operation("calendar.create_event"), slog.Duration(logging.KeyDuration, elapsed), logging.Err(err))
		return nil, err
	}

	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithEventID(created.ID).Build()...)
	instrumentation.SetSpanSuccess(span)
	o.Metrics.RecordCalendarAPIOperation(ctx, provider, instrumentation.OperationCreateEvent, instrumentation.StatusSuccess, elapsed)
	logger.Debug("event created", logging.Operation("calendar.create_event"), slog.Duration(logging.KeyDuration, elapsed))
	return created, nil
}
