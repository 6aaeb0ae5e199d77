package booking

import (
	"time"

	"github.com/teemow/slotbooker/internal/calendar"
)

// Confirmation describes a booking the provider accepted.
type Confirmation struct {
	Provider string
	EventID  string

	// JoinURL is empty when the provider attached no online meeting.
	JoinURL string
	WebLink string

	Subject   string
	Start     time.Time
	End       time.Time
	Attendees []string
}

func newConfirmation(provider string, created *calendar.CreatedEvent) *Confirmation {
	return &Confirmation{
		Provider:  provider,
		EventID:   created.ID,
		JoinURL:   created.JoinURL,
		WebLink:   created.WebLink,
		Subject:   created.Subject,
		Start:     created.Start,
		End:       created.End,
		Attendees: append([]string(nil), created.Attendees...),
	}
}

// DurationMinutes returns the meeting length.
func (c *Confirmation) DurationMinutes() int {
	return int(c.End.Sub(c.Start) / time.Minute)
}

// ICS renders the booking as an iCalendar invite organized by organizer.
func (c *Confirmation) ICS(organizer string, stamp time.Time) ([]byte, error) {
	return calendar.ICS(&calendar.CreatedEvent{
		ID:        c.EventID,
		Subject:   c.Subject,
		Start:     c.Start,
		End:       c.End,
		Attendees: c.Attendees,
		WebLink:   c.WebLink,
		JoinURL:   c.JoinURL,
	}, organizer, stamp)
}

// Filename suggests a download name for the invite, e.g. meeting-20261020-1000.ics.
func (c *Confirmation) Filename() string {
	return "meeting-" + c.Start.Format("20060102-1504") + ".ics"
}
