package instrumentation

import (
	"fmt"
	"slices"

	"github.com/caarlos0/env/v11"
)

// Config holds the telemetry settings. LoadConfig fills it from the
// environment; fields without an env tag are set by the caller.
type Config struct {
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"slotbooker"`

	// ServiceVersion is stamped by the CLI from the build version.
	ServiceVersion string

	// ServiceInstanceID defaults to the hostname when empty.
	ServiceInstanceID string `env:"OTEL_SERVICE_INSTANCE_ID"`

	// Enabled switches metrics and tracing off entirely when false.
	Enabled bool `env:"INSTRUMENTATION_ENABLED" envDefault:"true"`

	// MetricsExporter is one of prometheus, otlp or stdout.
	MetricsExporter string `env:"METRICS_EXPORTER" envDefault:"prometheus"`

	// TracingExporter is one of otlp, stdout or none.
	TracingExporter string `env:"TRACING_EXPORTER" envDefault:"none"`

	// OTLPEndpoint is host:port without a scheme, e.g. "localhost:4318".
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// OTLPInsecure sends OTLP over plain HTTP. Spans carry booking metadata,
	// so keep this to local collectors.
	OTLPInsecure bool `env:"OTEL_EXPORTER_OTLP_INSECURE"`

	// TraceSamplingRate is the parent-based ratio in [0, 1].
	TraceSamplingRate float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"0.1"`

	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig controls the per-booking audit line.
type AuditLoggingConfig struct {
	Enabled bool `env:"AUDIT_LOGGING_ENABLED" envDefault:"true"`

	// IncludePII logs the attendee address in clear instead of its hash.
	IncludePII bool `env:"AUDIT_LOGGING_INCLUDE_PII"`
}

// LoadConfig reads the telemetry settings from the process environment.
func LoadConfig() (Config, error) {
	return parseConfig(env.Options{})
}

// ParseConfig reads the telemetry settings from environ.
func ParseConfig(environ map[string]string) (Config, error) {
	return parseConfig(env.Options{Environment: environ})
}

func parseConfig(opts env.Options) (Config, error) {
	cfg := Config{ServiceVersion: "unknown"}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("invalid instrumentation settings: %w", err)
	}
	return cfg, nil
}

var (
	metricsExporters = []string{ExporterPrometheus, ExporterOTLP, ExporterStdout}
	tracingExporters = []string{ExporterOTLP, ExporterStdout, ExporterNone}
)

// Validate checks exporter names, the sampling rate and the OTLP endpoint.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}
	if c.MetricsExporter != "" && !slices.Contains(metricsExporters, c.MetricsExporter) {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: %v", c.MetricsExporter, metricsExporters)
	}
	if c.TracingExporter != "" && !slices.Contains(tracingExporters, c.TracingExporter) {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: %v", c.TracingExporter, tracingExporters)
	}
	if c.OTLPEndpoint == "" && (c.MetricsExporter == ExporterOTLP || c.TracingExporter == ExporterOTLP) {
		return fmt.Errorf("OTLP endpoint is required when an exporter is set to otlp")
	}
	return nil
}

// Metric label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	AuthResultSuccess       = "success"
	AuthResultStateMismatch = "state_mismatch"
	AuthResultInvalidGrant  = "invalid_grant"
	AuthResultFailure       = "failure"

	BookingCreated          = "created"
	BookingInvalid          = "invalid"
	BookingNotAuthenticated = "not_authenticated"
	BookingRejected         = "rejected"

	OperationCreateEvent   = "create_event"
	OperationExchangeToken = "exchange_token"

	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)
