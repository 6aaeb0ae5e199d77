package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/teemow/slotbooker/internal/instrumentation"
)

// Timeouts of the booking page server. WriteTimeout covers one token
// exchange or one create-event call.
const (
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultWriteTimeout      = 60 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
)

// HTTPServerConfig holds configuration for the booking page server.
type HTTPServerConfig struct {
	Addr string

	// Handler serves the booking page.
	Handler http.Handler

	// Health adds the probe endpoints when set.
	Health *HealthChecker

	Metrics *instrumentation.Metrics

	// HSTS enables Strict-Transport-Security; set it when served over https.
	HSTS bool

	Logger *slog.Logger
}

// HTTPServer serves the booking page and the health endpoints.
type HTTPServer struct {
	httpServer *http.Server
	health     *HealthChecker
	logger     *slog.Logger
}

// NewHTTPServer creates the server and assembles its middleware.
func NewHTTPServer(config HTTPServerConfig) (*HTTPServer, error) {
	if config.Handler == nil {
		return nil, errors.New("handler is required")
	}
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	if config.Health != nil {
		config.Health.RegisterHealthEndpoints(mux)
	}
	mux.Handle("/", config.Handler)

	var handler http.Handler = mux
	handler = requestMetrics(config.Metrics, handler)
	handler = securityHeaders(config.HSTS, handler)
	handler = otelhttp.NewHandler(handler, "slotbooker",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)

	return &HTTPServer{
		httpServer: &http.Server{
			Addr:              config.Addr,
			Handler:           handler,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			WriteTimeout:      DefaultWriteTimeout,
			IdleTimeout:       DefaultIdleTimeout,
		},
		health: config.Health,
		logger: config.Logger,
	}, nil
}

// Handler returns the fully wrapped handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *HTTPServer) Addr() string {
	return s.httpServer.Addr
}

// Start serves until Shutdown is called. It returns http.ErrServerClosed
// after a graceful shutdown.
func (s *HTTPServer) Start() error {
	s.logger.Info("Starting HTTP server", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Serve serves on an existing listener.
func (s *HTTPServer) Serve(l net.Listener) error {
	s.logger.Info("Starting HTTP server", slog.String("addr", l.Addr().String()))
	return s.httpServer.Serve(l)
}

// Shutdown marks the server not ready and drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.health != nil {
		s.health.MarkShuttingDown()
	}
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
