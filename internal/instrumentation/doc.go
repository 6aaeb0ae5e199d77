// Package instrumentation provides OpenTelemetry instrumentation for slotbooker.
//
// This package enables observability through:
//   - OpenTelemetry metrics for HTTP requests, OAuth authorizations, calendar
//     provider calls and booking outcomes
//   - Distributed tracing for booking submissions and provider calls
//   - Prometheus metrics export via /metrics endpoint on dedicated port
//   - OTLP export support for modern observability platforms
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Calendar Provider Metrics:
//   - calendar_api_operations_total: Counter of provider calls by provider, operation, status
//   - calendar_api_operation_duration_seconds: Histogram of provider call durations
//
// OAuth Metrics:
//   - oauth_authorizations_total: Counter of authorization attempts by result
//
// Booking Metrics:
//   - bookings_total: Counter of booking submissions by status
//
// # Configuration
//
// Instrumentation can be configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: Metrics exporter type (prometheus, otlp, stdout, default: prometheus)
//   - TRACING_EXPORTER: Tracing exporter type (otlp, stdout, none, default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: slotbooker)
//
// # Example Usage
//
//	cfg, err := instrumentation.LoadConfig()
//	if err != nil {
//		return err
//	}
//	provider, err := instrumentation.NewProvider(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordBooking(ctx, instrumentation.BookingCreated)
package instrumentation
