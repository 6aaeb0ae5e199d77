package calendar

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// Event is the event to create. End is always Start plus the meeting length.
type Event struct {
	Subject string
	Body    string
	Start   time.Time
	End     time.Time

	// TimeZone is the IANA zone the times are expressed in. Empty means UTC.
	TimeZone string

	// Attendees are invited as required attendees.
	Attendees []string

	IsOnlineMeeting bool
}

// CreatedEvent is the provider's view of a newly created event.
type CreatedEvent struct {
	ID        string
	Subject   string
	Start     time.Time
	End       time.Time
	Attendees []string

	// WebLink opens the event in the provider's calendar UI.
	WebLink string

	// JoinURL is the online meeting link, empty if the provider did not return one.
	JoinURL string
}

// Creator creates events in the default calendar of the token's owner.
type Creator interface {
	// CreateEvent issues exactly one create request.
	CreateEvent(ctx context.Context, ts oauth2.TokenSource, event Event) (*CreatedEvent, error)

	// Provider returns the provider name used in metrics and logs.
	Provider() string
}

// location resolves the event's time zone, falling back to UTC.
func (e Event) location() (*time.Location, string) {
	if e.TimeZone == "" {
		return time.UTC, "UTC"
	}
	loc, err := time.LoadLocation(e.TimeZone)
	if err != nil {
		return time.UTC, "UTC"
	}
	return loc, e.TimeZone
}

func (e Event) created(id, webLink, joinURL string) *CreatedEvent {
	return &CreatedEvent{
		ID:        id,
		Subject:   e.Subject,
		Start:     e.Start,
		End:       e.End,
		Attendees: append([]string(nil), e.Attendees...),
		WebLink:   webLink,
		JoinURL:   joinURL,
	}
}
