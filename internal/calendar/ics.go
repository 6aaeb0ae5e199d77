package calendar

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

const icsProductID = "-//slotbooker//EN"

// ICS renders the created event as an iCalendar document the attendee can
// import. stamp is written as DTSTAMP.
func ICS(ev *CreatedEvent, organizer string, stamp time.Time) ([]byte, error) {
	if ev == nil {
		return nil, fmt.Errorf("no event to render")
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)
	cal.Props.SetText(ical.PropMethod, "PUBLISH")

	event := ical.NewEvent()
	uid := ev.ID
	if uid == "" {
		uid = fmt.Sprintf("%d@slotbooker", ev.Start.Unix())
	}
	event.Props.SetText(ical.PropUID, uid)
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, ev.Start.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, ev.End.UTC())
	event.Props.SetText(ical.PropSummary, ev.Subject)

	if ev.JoinURL != "" {
		event.Props.SetText(ical.PropLocation, ev.JoinURL)
		event.Props.SetText(ical.PropDescription, "Join the online meeting: "+ev.JoinURL)
	}

	if organizer != "" {
		prop := ical.NewProp(ical.PropOrganizer)
		prop.Value = "mailto:" + organizer
		event.Props.Set(prop)
	}

	for _, addr := range ev.Attendees {
		prop := ical.NewProp(ical.PropAttendee)
		prop.Value = "mailto:" + addr
		prop.Params.Set(ical.ParamRole, "REQ-PARTICIPANT")
		event.Props.Add(prop)
	}

	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}
