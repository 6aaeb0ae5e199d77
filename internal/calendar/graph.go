package calendar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"github.com/teemow/slotbooker/internal/config"
)

const (
	// DefaultGraphBaseURL is the Microsoft Graph v1.0 root.
	DefaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

	graphTimeLayout = "2006-01-02T15:04:05"

	teamsForBusiness = "teamsForBusiness"
)

// GraphClient creates events through Microsoft Graph.
type GraphClient struct {
	baseURL string
	opts    Options
}

// NewGraphClient creates a Graph client. An empty opts.BaseURL selects DefaultGraphBaseURL.
func NewGraphClient(opts Options) *GraphClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultGraphBaseURL
	}
	return &GraphClient{baseURL: baseURL, opts: opts}
}

// Provider implements Creator.
func (c *GraphClient) Provider() string {
	return config.ProviderMicrosoft
}

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphEmailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type graphAttendee struct {
	EmailAddress graphEmailAddress `json:"emailAddress"`
	Type         string            `json:"type"`
}

type graphItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphEvent struct {
	Subject               string          `json:"subject"`
	Body                  *graphItemBody  `json:"body,omitempty"`
	Start                 graphDateTime   `json:"start"`
	End                   graphDateTime   `json:"end"`
	Attendees             []graphAttendee `json:"attendees"`
	IsOnlineMeeting       bool            `json:"isOnlineMeeting"`
	OnlineMeetingProvider string          `json:"onlineMeetingProvider,omitempty"`
}

type graphCreatedEvent struct {
	ID            string `json:"id"`
	WebLink       string `json:"webLink"`
	OnlineMeeting *struct {
		JoinURL string `json:"joinUrl"`
	} `json:"onlineMeeting"`
}

type graphErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// toGraphEvent builds the request payload.
func toGraphEvent(e Event) graphEvent {
	loc, zone := e.location()

	ge := graphEvent{
		Subject:         e.Subject,
		Start:           graphDateTime{DateTime: e.Start.In(loc).Format(graphTimeLayout), TimeZone: zone},
		End:             graphDateTime{DateTime: e.End.In(loc).Format(graphTimeLayout), TimeZone: zone},
		Attendees:       make([]graphAttendee, 0, len(e.Attendees)),
		IsOnlineMeeting: e.IsOnlineMeeting,
	}
	if e.IsOnlineMeeting {
		ge.OnlineMeetingProvider = teamsForBusiness
	}
	if e.Body != "" {
		ge.Body = &graphItemBody{ContentType: "text", Content: e.Body}
	}
	for _, addr := range e.Attendees {
		ge.Attendees = append(ge.Attendees, graphAttendee{
			EmailAddress: graphEmailAddress{Address: addr},
			Type:         "required",
		})
	}
	return ge
}

// CreateEvent posts the event to the owner's default calendar.
func (c *GraphClient) CreateEvent(ctx context.Context, ts oauth2.TokenSource, event Event) (*CreatedEvent, error) {
	return c.opts.observe(ctx, c.Provider(), event, func(ctx context.Context) (*CreatedEvent, error) {
		return c.createEvent(ctx, ts, event)
	})
}

func (c *GraphClient) createEvent(ctx context.Context, ts oauth2.TokenSource, event Event) (*CreatedEvent, error) {
	body, err := json.Marshal(toGraphEvent(event))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/me/calendar/events", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.opts.authorizedClient(ts).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, graphAPIError(resp)
	}

	var created graphCreatedEvent
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	joinURL := ""
	if created.OnlineMeeting != nil {
		joinURL = created.OnlineMeeting.JoinURL
	}
	return event.created(created.ID, created.WebLink, joinURL), nil
}

// graphAPIError reads the Graph error envelope, falling back to the raw body.
func graphAPIError(resp *http.Response) *APIError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &APIError{Status: resp.StatusCode}
	var envelope graphErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(raw))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
