package calendar

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestICS(t *testing.T) {
	start := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)
	created := &CreatedEvent{
		ID:        "AAMkAGI2",
		Subject:   "Sync",
		Start:     start,
		End:       start.Add(30 * time.Minute),
		Attendees: []string{"a@b.com"},
		JoinURL:   "https://teams.microsoft.com/l/meetup-join/1",
	}

	raw, err := ICS(created, "owner@contoso.com", start.Add(-time.Hour))
	require.NoError(t, err)

	cal, err := ical.NewDecoder(bytes.NewReader(raw)).Decode()
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 1)
	ev := events[0]

	gotStart, err := ev.DateTimeStart(time.UTC)
	require.NoError(t, err)
	gotEnd, err := ev.DateTimeEnd(time.UTC)
	require.NoError(t, err)
	assert.True(t, start.Equal(gotStart))
	assert.True(t, start.Add(30*time.Minute).Equal(gotEnd))

	assert.Equal(t, "AAMkAGI2", ev.Props.Get(ical.PropUID).Value)
	assert.Equal(t, "Sync", ev.Props.Get(ical.PropSummary).Value)
	assert.Equal(t, "https://teams.microsoft.com/l/meetup-join/1", ev.Props.Get(ical.PropLocation).Value)
	assert.Equal(t, "mailto:owner@contoso.com", ev.Props.Get(ical.PropOrganizer).Value)

	attendees := ev.Props.Values(ical.PropAttendee)
	require.Len(t, attendees, 1)
	assert.Equal(t, "mailto:a@b.com", attendees[0].Value)
}

func TestICS_Minimal(t *testing.T) {
	start := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)
	raw, err := ICS(&CreatedEvent{Subject: "Sync", Start: start, End: start.Add(15 * time.Minute)}, "", start)
	require.NoError(t, err)

	cal, err := ical.NewDecoder(bytes.NewReader(raw)).Decode()
	require.NoError(t, err)
	ev := cal.Events()[0]
	assert.Nil(t, ev.Props.Get(ical.PropLocation))
	assert.Nil(t, ev.Props.Get(ical.PropOrganizer))
	assert.Empty(t, ev.Props.Values(ical.PropAttendee))
	assert.NotEmpty(t, ev.Props.Get(ical.PropUID).Value)
}

func TestICS_NilEvent(t *testing.T) {
	_, err := ICS(nil, "", time.Now())
	assert.Error(t, err)
}
