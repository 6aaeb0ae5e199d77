package calendar

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/slotbooker/internal/config"
)

// fakeAPI records create-event requests and answers with status/body.
type fakeAPI struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest

	status int
	body   string
}

type recordedRequest struct {
	Method        string
	Path          string
	Authorization string
	Body          map[string]any
}

func newFakeAPI(t *testing.T, status int, body string) *fakeAPI {
	t.Helper()

	f := &fakeAPI{status: status, body: body}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var decoded map[string]any
		_ = json.Unmarshal(raw, &decoded)

		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Body:          decoded,
		})
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAPI) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func testTokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "access-token", TokenType: "Bearer"})
}

func testEvent(t *testing.T) Event {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	start := time.Date(2026, 10, 20, 10, 0, 0, 0, loc)
	return Event{
		Subject:         "Sync",
		Start:           start,
		End:             start.Add(30 * time.Minute),
		TimeZone:        "Europe/Berlin",
		Attendees:       []string{"a@b.com"},
		IsOnlineMeeting: true,
	}
}

const graphCreated = `{
	"id": "AAMkAGI2",
	"subject": "Sync",
	"webLink": "https://outlook.office365.com/owa/?itemid=AAMkAGI2",
	"onlineMeeting": {"joinUrl": "https://teams.microsoft.com/l/meetup-join/19%3ameeting"}
}`

func TestGraphClient_CreateEvent(t *testing.T) {
	srv := newFakeAPI(t, http.StatusCreated, graphCreated)
	client := NewGraphClient(Options{BaseURL: srv.URL + "/v1.0/", HTTPClient: srv.Client()})

	event := testEvent(t)
	created, err := client.CreateEvent(context.Background(), testTokenSource(), event)
	require.NoError(t, err)

	assert.Equal(t, "AAMkAGI2", created.ID)
	assert.Equal(t, "https://teams.microsoft.com/l/meetup-join/19%3ameeting", created.JoinURL)
	assert.Equal(t, "https://outlook.office365.com/owa/?itemid=AAMkAGI2", created.WebLink)
	assert.Equal(t, event.Start, created.Start)
	assert.Equal(t, event.End, created.End)
	assert.Equal(t, []string{"a@b.com"}, created.Attendees)

	reqs := srv.recorded()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v1.0/me/calendar/events", req.Path)
	assert.Equal(t, "Bearer access-token", req.Authorization)

	body := req.Body
	assert.Equal(t, "Sync", body["subject"])
	assert.Equal(t, true, body["isOnlineMeeting"])
	assert.Equal(t, "teamsForBusiness", body["onlineMeetingProvider"])
	assert.Equal(t, map[string]any{"dateTime": "2026-10-20T10:00:00", "timeZone": "Europe/Berlin"}, body["start"])
	assert.Equal(t, map[string]any{"dateTime": "2026-10-20T10:30:00", "timeZone": "Europe/Berlin"}, body["end"])
	assert.Equal(t, []any{
		map[string]any{
			"emailAddress": map[string]any{"address": "a@b.com"},
			"type":         "required",
		},
	}, body["attendees"])
}

func TestGraphClient_CreateEvent_NoAttendee(t *testing.T) {
	srv := newFakeAPI(t, http.StatusCreated, `{"id":"AAMk"}`)
	client := NewGraphClient(Options{BaseURL: srv.URL, HTTPClient: srv.Client()})

	event := testEvent(t)
	event.Attendees = nil

	created, err := client.CreateEvent(context.Background(), testTokenSource(), event)
	require.NoError(t, err)
	assert.Empty(t, created.Attendees)
	assert.Empty(t, created.JoinURL)

	reqs := srv.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, []any{}, reqs[0].Body["attendees"])
}

func TestGraphClient_CreateEvent_UTCDefault(t *testing.T) {
	srv := newFakeAPI(t, http.StatusCreated, `{"id":"AAMk"}`)
	client := NewGraphClient(Options{BaseURL: srv.URL, HTTPClient: srv.Client()})

	start := time.Date(2026, 10, 20, 8, 0, 0, 0, time.UTC)
	_, err := client.CreateEvent(context.Background(), testTokenSource(), Event{
		Subject: "Sync",
		Start:   start,
		End:     start.Add(15 * time.Minute),
	})
	require.NoError(t, err)

	body := srv.recorded()[0].Body
	assert.Equal(t, map[string]any{"dateTime": "2026-10-20T08:15:00", "timeZone": "UTC"}, body["end"])
	assert.Equal(t, false, body["isOnlineMeeting"])
	assert.NotContains(t, body, "onlineMeetingProvider")
}

func TestGraphClient_CreateEvent_ProviderErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    string
		wantMessage string
	}{
		{
			name:        "graph error envelope",
			status:      http.StatusForbidden,
			body:        `{"error":{"code":"ErrorAccessDenied","message":"Access is denied. Check credentials and try again."}}`,
			wantCode:    "ErrorAccessDenied",
			wantMessage: "Access is denied. Check credentials and try again.",
		},
		{
			name:        "plain text body",
			status:      http.StatusBadGateway,
			body:        "upstream unavailable\n",
			wantMessage: "upstream unavailable",
		},
		{
			name:        "empty body",
			status:      http.StatusServiceUnavailable,
			wantMessage: "Service Unavailable",
		},
		{
			name:        "200 is not created",
			status:      http.StatusOK,
			body:        `{"id":"x"}`,
			wantMessage: `{"id":"x"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeAPI(t, tt.status, tt.body)
			client := NewGraphClient(Options{BaseURL: srv.URL, HTTPClient: srv.Client()})

			_, err := client.CreateEvent(context.Background(), testTokenSource(), testEvent(t))
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			assert.Len(t, srv.recorded(), 1, "no retry")
		})
	}
}

func TestGraphClient_TwoCallsTwoRequests(t *testing.T) {
	srv := newFakeAPI(t, http.StatusCreated, `{"id":"AAMk"}`)
	client := NewGraphClient(Options{BaseURL: srv.URL, HTTPClient: srv.Client()})

	event := testEvent(t)
	for i := 0; i < 2; i++ {
		_, err := client.CreateEvent(context.Background(), testTokenSource(), event)
		require.NoError(t, err)
	}
	assert.Len(t, srv.recorded(), 2)
}

func TestGraphClient_TokenSourceFailure(t *testing.T) {
	srv := newFakeAPI(t, http.StatusCreated, `{"id":"AAMk"}`)
	client := NewGraphClient(Options{BaseURL: srv.URL, HTTPClient: srv.Client()})

	_, err := client.CreateEvent(context.Background(), failingTokenSource{}, testEvent(t))
	require.Error(t, err)
	assert.Empty(t, srv.recorded())
}

type failingTokenSource struct{}

func (failingTokenSource) Token() (*oauth2.Token, error) {
	return nil, errors.New("token unavailable")
}

func TestNewCreator(t *testing.T) {
	creator, err := NewCreator(config.Config{Provider: config.ProviderMicrosoft, GraphBaseURL: "https://graph.example.com/v1.0"}, Options{})
	require.NoError(t, err)
	graph, ok := creator.(*GraphClient)
	require.True(t, ok)
	assert.Equal(t, "https://graph.example.com/v1.0", graph.baseURL)
	assert.Equal(t, config.ProviderMicrosoft, creator.Provider())

	creator, err = NewCreator(config.Config{Provider: config.ProviderGoogle, GoogleCalendarID: "team@example.com"}, Options{})
	require.NoError(t, err)
	google, ok := creator.(*GoogleClient)
	require.True(t, ok)
	assert.Equal(t, "team@example.com", google.calendarID)

	_, err = NewCreator(config.Config{Provider: "zimbra"}, Options{})
	assert.ErrorIs(t, err, config.ErrConfiguration)
}
