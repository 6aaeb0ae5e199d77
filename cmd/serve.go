package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/teemow/slotbooker/internal/config"
	"github.com/teemow/slotbooker/internal/instrumentation"
	"github.com/teemow/slotbooker/internal/logging"
	"github.com/teemow/slotbooker/internal/server"
	"github.com/teemow/slotbooker/internal/web"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

type serveOptions struct {
	appOptions
	addr     string
	noBanner bool
	metrics  MetricsConfig
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the booking page",
		Long: `Serve the booking page for the calendar owner.

The owner connects their calendar once per process: the page shows a sign-in
link, and the provider's redirect is either received on /auth/callback or
pasted back into the page. Nothing is persisted; restarting the process
requires signing in again.

Required environment (or .env file):
  CLIENT_ID, CLIENT_SECRET, TENANT_ID, REDIRECT_URI

Optional environment:
  CALENDAR_PROVIDER   microsoft (default) or google
  CALENDAR_TIMEZONE   IANA zone for booking times (default: UTC)
  OAUTH_SCOPES        comma-separated scopes overriding the provider defaults
  GOOGLE_CALENDAR_ID  calendar to book into with Google (default: primary)
  OWNER_NAME          name shown in the status banner
  METRICS_ENABLED     start the metrics server (same as --metrics-enabled)
  METRICS_ADDR        metrics server address (same as --metrics-addr)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loadMetricsEnvVars(cmd, &opts.metrics)
			return runServe(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "Address to serve the booking page on")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "Env file to load instead of .env")
	cmd.Flags().StringVar(&opts.scopes, "scopes", "", "Comma-separated OAuth scopes (overrides OAUTH_SCOPES)")
	cmd.Flags().BoolVar(&opts.noBanner, "no-banner", false, "Do not print the startup banner")
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", false, "Serve Prometheus metrics on a dedicated port")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Address of the metrics server")

	return cmd
}

// loadMetricsEnvVars applies METRICS_ENABLED and METRICS_ADDR when the
// matching flag was not set explicitly.
func loadMetricsEnvVars(cmd *cobra.Command, metrics *MetricsConfig) {
	if !cmd.Flags().Changed("metrics-enabled") && os.Getenv("METRICS_ENABLED") == "true" {
		metrics.Enabled = true
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			metrics.Addr = addr
		}
	}
}

func runServe(ctx context.Context, out, logOut io.Writer, opts serveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(shutdownCtx, opts.appOptions, logOut)
	if err != nil {
		return err
	}
	defer a.shutdown(context.Background())

	if !opts.noBanner {
		printBanner(out, a.cfg, opts.addr)
	}

	handler, err := web.NewHandler(web.Config{
		Authorizer:  a.authorizer,
		Submitter:   a.submitter,
		RedirectURI: a.cfg.RedirectURI,
		Scopes:      a.cfg.Scopes,
		Location:    a.cfg.Location(),
		OwnerName:   a.cfg.OwnerName,
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}

	httpServer, err := server.NewHTTPServer(server.HTTPServerConfig{
		Addr:    opts.addr,
		Handler: handler,
		Health:  server.NewHealthChecker(a.cfg.Provider, handler.Authenticated),
		Metrics: a.instr.Metrics(),
		HSTS:    strings.HasPrefix(a.cfg.RedirectURI, "https://"),
		Logger:  a.logger,
	})
	if err != nil {
		return err
	}

	// Started last so the error paths above leave no listener behind.
	var metricsServer *server.MetricsServer
	if opts.metrics.Enabled && a.instr.Enabled() && a.instrCfg.MetricsExporter == instrumentation.ExporterPrometheus {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    opts.metrics.Addr,
			InstrumentationProvider: a.instr,
			Logger:                  a.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Metrics server stopped", logging.Err(err))
			}
		}()
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	var serveErr error
	select {
	case <-shutdownCtx.Done():
		a.logger.Info("Shutdown signal received, stopping servers")
	case serveErr = <-serverDone:
	}

	stopCtx, stop := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer stop()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(stopCtx); err != nil {
			a.logger.Warn("Error during metrics server shutdown", logging.Err(err))
		}
	}
	if serveErr != nil {
		return fmt.Errorf("HTTP server stopped with error: %w", serveErr)
	}
	if err := httpServer.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("error shutting down HTTP server: %w", err)
	}
	a.logger.Info("HTTP server gracefully stopped")
	return nil
}

func printBanner(out io.Writer, cfg config.Config, addr string) {
	fmt.Fprint(out, figure.NewFigure("slotbooker", "cybermedium", true).String())
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Calendar provider: %s (time zone %s)\n", cfg.Provider, cfg.TimeZone)
	fmt.Fprintf(out, "Redirect URI:      %s\n", cfg.RedirectURI)
	fmt.Fprintf(out, "Booking page:      http://%s/\n", displayAddr(addr))
	fmt.Fprintln(out)
}

// displayAddr turns a listen address such as ":8080" into a browsable host.
func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
