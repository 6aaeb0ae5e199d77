package calendar

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const googleCreated = `{
	"id": "evt123",
	"summary": "Sync",
	"htmlLink": "https://www.google.com/calendar/event?eid=evt123",
	"hangoutLink": "https://meet.google.com/abc-defg-hij",
	"conferenceData": {
		"entryPoints": [
			{"entryPointType": "phone", "uri": "tel:+1-555-0100"},
			{"entryPointType": "video", "uri": "https://meet.google.com/abc-defg-hij"}
		]
	}
}`

func TestGoogleClient_CreateEvent(t *testing.T) {
	srv := newFakeAPI(t, http.StatusOK, googleCreated)
	client := NewGoogleClient("", Options{BaseURL: srv.URL, HTTPClient: srv.Client()})

	event := testEvent(t)
	created, err := client.CreateEvent(context.Background(), testTokenSource(), event)
	require.NoError(t, err)

	assert.Equal(t, "evt123", created.ID)
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", created.JoinURL)
	assert.Equal(t, "https://www.google.com/calendar/event?eid=evt123", created.WebLink)
	assert.Equal(t, event.End, created.End)

	reqs := srv.recorded()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/calendars/primary/events", req.Path)
	assert.Equal(t, "Bearer access-token", req.Authorization)

	body := req.Body
	assert.Equal(t, "Sync", body["summary"])
	assert.Equal(t, map[string]any{"dateTime": "2026-10-20T10:00:00+02:00", "timeZone": "Europe/Berlin"}, body["start"])
	assert.Equal(t, map[string]any{"dateTime": "2026-10-20T10:30:00+02:00", "timeZone": "Europe/Berlin"}, body["end"])
	assert.Equal(t, []any{map[string]any{"email": "a@b.com"}}, body["attendees"])

	conference, ok := body["conferenceData"].(map[string]any)
	require.True(t, ok)
	createRequest, ok := conference["createRequest"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, createRequest["requestId"])
	assert.Equal(t, map[string]any{"type": "hangoutsMeet"}, createRequest["conferenceSolutionKey"])
}

func TestGoogleClient_FreshRequestIDPerCall(t *testing.T) {
	srv := newFakeAPI(t, http.StatusOK, googleCreated)
	client := NewGoogleClient("primary", Options{BaseURL: srv.URL, HTTPClient: srv.Client()})

	event := testEvent(t)
	for i := 0; i < 2; i++ {
		_, err := client.CreateEvent(context.Background(), testTokenSource(), event)
		require.NoError(t, err)
	}

	reqs := srv.recorded()
	require.Len(t, reqs, 2)
	id := func(r recordedRequest) any {
		return r.Body["conferenceData"].(map[string]any)["createRequest"].(map[string]any)["requestId"]
	}
	assert.NotEqual(t, id(reqs[0]), id(reqs[1]))
}

func TestGoogleClient_ProviderError(t *testing.T) {
	srv := newFakeAPI(t, http.StatusForbidden,
		`{"error":{"code":403,"message":"The caller does not have permission","errors":[{"reason":"forbidden","message":"The caller does not have permission"}]}}`)
	client := NewGoogleClient("team@example.com", Options{BaseURL: srv.URL, HTTPClient: srv.Client()})

	_, err := client.CreateEvent(context.Background(), testTokenSource(), testEvent(t))
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "forbidden", apiErr.Code)
	assert.Equal(t, "The caller does not have permission", apiErr.Message)
	assert.Len(t, srv.recorded(), 1)
}

func TestMeetLink_FallsBackToHangoutLink(t *testing.T) {
	ev := toGoogleEvent(Event{Subject: "x"})
	assert.Nil(t, ev.ConferenceData)
	ev.HangoutLink = "https://meet.google.com/xyz"
	assert.Equal(t, "https://meet.google.com/xyz", meetLink(ev))
}
