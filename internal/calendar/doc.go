// Package calendar creates online-meeting events in the calendar owner's
// default calendar.
//
// Two providers implement the Creator interface:
//   - GraphClient posts to Microsoft Graph (/me/calendar/events) with a
//     Teams meeting attached.
//   - GoogleClient inserts into Google Calendar with a Google Meet
//     conference request.
//
// Each call issues exactly one create request; nothing is retried. Outgoing
// requests are authorized from the caller's oauth2.TokenSource and traced
// with otelhttp. Provider rejections are returned as *APIError carrying the
// provider's status, code and message.
//
// Example usage:
//
//	creator, err := calendar.NewCreator(cfg, calendar.Options{Metrics: metrics})
//	if err != nil {
//	    return err
//	}
//	created, err := creator.CreateEvent(ctx, session.TokenSource(), calendar.Event{
//	    Subject:         "Project Discussion",
//	    Start:           start,
//	    End:             start.Add(30 * time.Minute),
//	    TimeZone:        "Europe/Berlin",
//	    IsOnlineMeeting: true,
//	})
package calendar
