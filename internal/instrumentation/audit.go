package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/slotbooker/internal/logging"
)

// BookingRecord captures one booking submission for audit logging.
//
// # Privacy Considerations
//
// Attendee holds an email address. LogAttrs replaces it with an anonymized
// hash and its domain; only LogAuditAttrs writes it in full.
type BookingRecord struct {
	Provider string
	Subject  string
	Attendee string

	Start           time.Time
	DurationMinutes int

	EventID string
	JoinURL string

	// Execution details
	StartedAt time.Time
	Elapsed   time.Duration
	Outcome   string
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// NewBookingRecord starts timing a booking submission.
func NewBookingRecord(provider, subject, attendee string, start time.Time, durationMinutes int) *BookingRecord {
	return &BookingRecord{
		Provider:        provider,
		Subject:         subject,
		Attendee:        attendee,
		Start:           start,
		DurationMinutes: durationMinutes,
		StartedAt:       time.Now(),
	}
}

// WithSpanContext extracts trace context from the current span.
func (br *BookingRecord) WithSpanContext(ctx context.Context) *BookingRecord {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		br.TraceID = span.SpanContext().TraceID().String()
		br.SpanID = span.SpanContext().SpanID().String()
	}
	return br
}

// Complete records the outcome and the elapsed time.
func (br *BookingRecord) Complete(outcome string, err error) *BookingRecord {
	br.Elapsed = time.Since(br.StartedAt)
	br.Outcome = outcome
	if err != nil {
		br.Error = err.Error()
	}
	return br
}

// Created marks the booking as created with the provider's event identifiers.
func (br *BookingRecord) Created(eventID, joinURL string) *BookingRecord {
	br.EventID = eventID
	br.JoinURL = joinURL
	return br.Complete(BookingCreated, nil)
}

// Succeeded reports whether the booking produced an event.
func (br *BookingRecord) Succeeded() bool {
	return br.Outcome == BookingCreated
}

func (br *BookingRecord) commonAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("provider", br.Provider),
		slog.String("outcome", br.Outcome),
		slog.Time("start", br.Start),
		slog.Int("duration_minutes", br.DurationMinutes),
		slog.Duration("elapsed", br.Elapsed),
	}
}

func (br *BookingRecord) optionalAttrs(attrs []slog.Attr) []slog.Attr {
	if br.EventID != "" {
		attrs = append(attrs, slog.String("event_id", br.EventID))
	}
	if br.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", br.TraceID))
	}
	if br.Error != "" {
		attrs = append(attrs, slog.String("error", br.Error))
	}
	return attrs
}

// LogAttrs returns slog attributes without PII.
func (br *BookingRecord) LogAttrs() []slog.Attr {
	attrs := br.commonAttrs()
	if br.Attendee != "" {
		attrs = append(attrs,
			logging.UserHash(br.Attendee),
			logging.Domain(br.Attendee),
		)
	}
	return br.optionalAttrs(attrs)
}

// LogAuditAttrs returns slog attributes including the attendee address and subject.
func (br *BookingRecord) LogAuditAttrs() []slog.Attr {
	attrs := br.commonAttrs()
	attrs = append(attrs, slog.String("subject", br.Subject))
	if br.Attendee != "" {
		attrs = append(attrs, slog.String("attendee", br.Attendee))
	}
	if br.JoinURL != "" {
		attrs = append(attrs, slog.String("join_url", br.JoinURL))
	}
	if br.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", br.SpanID))
	}
	return br.optionalAttrs(attrs)
}

// AuditLogger writes one structured line per booking submission.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that anonymizes attendees.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogBooking logs a booking record. A nil receiver is a no-op.
func (al *AuditLogger) LogBooking(br *BookingRecord) {
	if al == nil || !al.enabled || br == nil {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = br.LogAuditAttrs()
	} else {
		attrs = br.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if br.Succeeded() {
		al.logger.Info("booking_created", args...)
	} else {
		al.logger.Warn("booking_failed", args...)
	}
}
