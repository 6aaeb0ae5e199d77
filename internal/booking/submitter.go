package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/slotbooker/internal/calendar"
	"github.com/teemow/slotbooker/internal/instrumentation"
	"github.com/teemow/slotbooker/internal/logging"
)

// Session is the authorization state a submission is made with.
// *auth.Session satisfies it.
type Session interface {
	IsAuthenticated(now time.Time) bool
	TokenSource() oauth2.TokenSource
}

// Config configures a Submitter.
type Config struct {
	Creator calendar.Creator

	// TimeZone is the IANA zone sent with the event times.
	TimeZone string

	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
	Logger  *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Submitter creates one calendar event per accepted booking.
type Submitter struct {
	creator  calendar.Creator
	timeZone string
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger
	logger   *slog.Logger
	now      func() time.Time
}

// NewSubmitter creates a Submitter.
func NewSubmitter(cfg Config) (*Submitter, error) {
	if cfg.Creator == nil {
		return nil, errors.New("booking: calendar creator is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Submitter{
		creator:  cfg.Creator,
		timeZone: cfg.TimeZone,
		metrics:  cfg.Metrics,
		audit:    cfg.Audit,
		logger:   logging.WithOperation(cfg.Logger, "booking.submit"),
		now:      cfg.Now,
	}, nil
}

// Submit creates the event for req using the session's token. It makes
// exactly one create call and never retries. Failures are
// ErrNotAuthenticated, a *ValidationError, or a *SubmissionError.
func (s *Submitter) Submit(ctx context.Context, session Session, req Request) (*Confirmation, error) {
	provider := s.creator.Provider()
	record := instrumentation.NewBookingRecord(provider, req.Subject, req.AttendeeEmail, req.Start, req.DurationMinutes)

	ctx, span := instrumentation.StartSpan(ctx, "booking.submit",
		instrumentation.NewSpanAttributeBuilder().
			WithProvider(provider).
			WithDuration(req.DurationMinutes).
			WithAttendee(req.AttendeeEmail != "").
			Build()...)
	defer span.End()
	record.WithSpanContext(ctx)

	if err := req.check(); err != nil {
		s.finish(ctx, record, instrumentation.BookingInvalid, err)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	if session == nil || !session.IsAuthenticated(s.now()) {
		s.finish(ctx, record, instrumentation.BookingNotAuthenticated, ErrNotAuthenticated)
		instrumentation.SetSpanError(span, ErrNotAuthenticated)
		return nil, ErrNotAuthenticated
	}

	event := calendar.Event{
		Subject:         req.Subject,
		Start:           req.Start,
		End:             req.End(),
		TimeZone:        s.timeZone,
		IsOnlineMeeting: true,
	}
	if req.AttendeeEmail != "" {
		event.Attendees = []string{req.AttendeeEmail}
	}

	created, err := s.creator.CreateEvent(ctx, session.TokenSource(), event)
	if err != nil {
		subErr := &SubmissionError{Provider: provider, Err: err}
		s.finish(ctx, record, instrumentation.BookingRejected, subErr)
		instrumentation.SetSpanError(span, subErr)
		return nil, subErr
	}
	if created == nil {
		subErr := &SubmissionError{Provider: provider, Err: fmt.Errorf("provider returned no event")}
		s.finish(ctx, record, instrumentation.BookingRejected, subErr)
		instrumentation.SetSpanError(span, subErr)
		return nil, subErr
	}

	record.Created(created.ID, created.JoinURL)
	s.finish(ctx, record, instrumentation.BookingCreated, nil)
	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithEventID(created.ID).Build()...)
	instrumentation.SetSpanSuccess(span)

	s.logger.Info("Booking created",
		logging.Provider(provider),
		slog.String("event_id", created.ID),
		slog.Bool("online_meeting", created.JoinURL != ""))

	return newConfirmation(provider, created), nil
}

func (s *Submitter) finish(ctx context.Context, record *instrumentation.BookingRecord, outcome string, err error) {
	record.Complete(outcome, err)
	s.metrics.RecordBooking(ctx, outcome)
	s.audit.LogBooking(record)

	if err != nil {
		s.logger.Warn("Booking not created", logging.Status(outcome), logging.Err(err))
	}
}
