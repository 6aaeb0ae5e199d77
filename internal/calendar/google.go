package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/slotbooker/internal/config"
)

// DefaultGoogleCalendarID addresses the owner's primary calendar.
const DefaultGoogleCalendarID = "primary"

// GoogleClient creates events through the Google Calendar API.
type GoogleClient struct {
	calendarID string
	opts       Options
}

// NewGoogleClient creates a Google Calendar client. An empty calendarID selects the primary calendar.
func NewGoogleClient(calendarID string, opts Options) *GoogleClient {
	if calendarID == "" {
		calendarID = DefaultGoogleCalendarID
	}
	return &GoogleClient{calendarID: calendarID, opts: opts}
}

// Provider implements Creator.
func (c *GoogleClient) Provider() string {
	return config.ProviderGoogle
}

// toGoogleEvent builds the request payload with a Google Meet conference request.
func toGoogleEvent(e Event) *gcal.Event {
	loc, zone := e.location()

	ev := &gcal.Event{
		Summary:     e.Subject,
		Description: e.Body,
		Start: &gcal.EventDateTime{
			DateTime: e.Start.In(loc).Format(time.RFC3339),
			TimeZone: zone,
		},
		End: &gcal.EventDateTime{
			DateTime: e.End.In(loc).Format(time.RFC3339),
			TimeZone: zone,
		},
	}

	for _, addr := range e.Attendees {
		ev.Attendees = append(ev.Attendees, &gcal.EventAttendee{Email: addr})
	}

	if e.IsOnlineMeeting {
		ev.ConferenceData = &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId: uuid.NewString(),
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		}
	}
	return ev
}

// meetLink returns the video entry point of the created conference.
func meetLink(ev *gcal.Event) string {
	if ev.ConferenceData != nil {
		for _, ep := range ev.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				return ep.Uri
			}
		}
	}
	return ev.HangoutLink
}

// CreateEvent inserts the event into the configured calendar.
func (c *GoogleClient) CreateEvent(ctx context.Context, ts oauth2.TokenSource, event Event) (*CreatedEvent, error) {
	return c.opts.observe(ctx, c.Provider(), event, func(ctx context.Context) (*CreatedEvent, error) {
		return c.createEvent(ctx, ts, event)
	})
}

func (c *GoogleClient) createEvent(ctx context.Context, ts oauth2.TokenSource, event Event) (*CreatedEvent, error) {
	clientOpts := []option.ClientOption{option.WithHTTPClient(c.opts.authorizedClient(ts))}
	if c.opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(strings.TrimRight(c.opts.BaseURL, "/")+"/"))
	}

	svc, err := gcal.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	call := svc.Events.Insert(c.calendarID, toGoogleEvent(event)).
		SendUpdates("all").
		Context(ctx)
	if event.IsOnlineMeeting {
		call = call.ConferenceDataVersion(1)
	}

	created, err := call.Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			apiErr := &APIError{Status: gerr.Code, Message: gerr.Message}
			if len(gerr.Errors) > 0 {
				apiErr.Code = gerr.Errors[0].Reason
			}
			if apiErr.Message == "" {
				apiErr.Message = strings.TrimSpace(gerr.Body)
			}
			return nil, apiErr
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return event.created(created.Id, created.HtmlLink, meetLink(created)), nil
}
