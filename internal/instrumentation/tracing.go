package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for the slotbooker packages.
const TracerName = "github.com/teemow/slotbooker"

// Span attribute keys.
const (
	// SpanAttrProvider is the calendar provider attribute.
	SpanAttrProvider = "calendar.provider"

	// SpanAttrOperation is the provider operation attribute.
	SpanAttrOperation = "calendar.operation"

	// SpanAttrEventID is the identifier of a created event.
	SpanAttrEventID = "calendar.event_id"

	// SpanAttrDuration is the requested meeting length in minutes.
	SpanAttrDuration = "booking.duration_minutes"

	// SpanAttrHasAttendee indicates whether an attendee was invited.
	SpanAttrHasAttendee = "booking.has_attendee"

	// SpanAttrUser is the anonymized account hash.
	SpanAttrUser = "booking.user"
)

// SpanAttributeBuilder helps construct OpenTelemetry span attributes
// with consistent naming.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewSpanAttributeBuilder creates a new SpanAttributeBuilder.
func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 6),
	}
}

// WithProvider adds the calendar provider attribute.
func (b *SpanAttributeBuilder) WithProvider(provider string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrProvider, provider))
	return b
}

// WithEventID adds the event identifier when known.
func (b *SpanAttributeBuilder) WithEventID(id string) *SpanAttributeBuilder {
	if id != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrEventID, id))
	}
	return b
}

// WithDuration adds the meeting length in minutes.
func (b *SpanAttributeBuilder) WithDuration(minutes int) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Int(SpanAttrDuration, minutes))
	return b
}

// WithAttendee records whether an attendee is present. The address itself is never added.
func (b *SpanAttributeBuilder) WithAttendee(present bool) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Bool(SpanAttrHasAttendee, present))
	return b
}

// WithUser adds an anonymized user hash.
func (b *SpanAttributeBuilder) WithUser(hash string) *SpanAttributeBuilder {
	if hash != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrUser, hash))
	}
	return b
}

// Build returns the constructed attributes.
func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartSpan starts a new span with the given name and attributes.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartCalendarAPISpan starts a client span for a calendar provider call.
func StartCalendarAPISpan(ctx context.Context, provider, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+2)
	allAttrs = append(allAttrs,
		attribute.String(SpanAttrProvider, provider),
		attribute.String(SpanAttrOperation, operation),
	)
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "calendar."+provider+"."+operation,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
