package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/teemow/slotbooker/internal/auth"
	"github.com/teemow/slotbooker/internal/booking"
	"github.com/teemow/slotbooker/internal/calendar"
	"github.com/teemow/slotbooker/internal/config"
	"github.com/teemow/slotbooker/internal/instrumentation"
	"github.com/teemow/slotbooker/internal/logging"
)

// appOptions are the settings shared by serve and book.
type appOptions struct {
	envFile string
	debug   bool
	scopes  string
}

// app holds the components wired from the configuration.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	instr      *instrumentation.Provider
	instrCfg   instrumentation.Config
	authorizer *auth.Authorizer
	submitter  *booking.Submitter
}

func loadConfig(envFile string) (config.Config, error) {
	if envFile != "" {
		return config.Load(envFile)
	}
	return config.Load()
}

// newApp loads the configuration and wires the authorizer and the submitter.
// Missing credentials fail here, before anything is served.
func newApp(ctx context.Context, opts appOptions, logOut io.Writer) (*app, error) {
	logger := logging.New(logOut, opts.debug)

	cfg, err := loadConfig(opts.envFile)
	if err != nil {
		return nil, err
	}
	if scopes := parseCommaSeparatedList(opts.scopes); scopes != nil {
		cfg.Scopes = scopes
	}

	instrCfg, err := instrumentation.LoadConfig()
	if err != nil {
		return nil, err
	}
	instrCfg.ServiceVersion = version
	instr, err := instrumentation.NewProvider(ctx, instrCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	metrics := instr.Metrics()

	authorizer, err := auth.New(auth.Config{
		Provider:     cfg.Provider,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TenantID:     cfg.TenantID,
		Scopes:       cfg.Scopes,
		Metrics:      metrics,
		Logger:       logger,
	})
	if err != nil {
		_ = instr.Shutdown(ctx)
		return nil, err
	}

	creator, err := calendar.NewCreator(cfg, calendar.Options{
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		_ = instr.Shutdown(ctx)
		return nil, err
	}

	var audit *instrumentation.AuditLogger
	if instrCfg.AuditLogging.Enabled {
		audit = instrumentation.NewAuditLoggerWithConfig(logger, instrCfg.AuditLogging)
	}

	submitter, err := booking.NewSubmitter(booking.Config{
		Creator:  creator,
		TimeZone: cfg.TimeZone,
		Metrics:  metrics,
		Audit:    audit,
		Logger:   logger,
	})
	if err != nil {
		_ = instr.Shutdown(ctx)
		return nil, err
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		instr:      instr,
		instrCfg:   instrCfg,
		authorizer: authorizer,
		submitter:  submitter,
	}, nil
}

func (a *app) shutdown(ctx context.Context) {
	if err := a.instr.Shutdown(ctx); err != nil {
		a.logger.Warn("Error during instrumentation shutdown", logging.Err(err))
	}
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
