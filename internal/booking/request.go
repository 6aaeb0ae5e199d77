package booking

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"
)

// Duration bounds in minutes, inclusive.
const (
	MinDuration     = 15
	MaxDuration     = 60
	DefaultDuration = 30
	DurationStep    = 15
)

// Layouts of the date and time form fields.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// DefaultSubject is prefilled in the booking form.
const DefaultSubject = "Project Discussion"

// Form field names.
const (
	FieldDate     = "date"
	FieldTime     = "time"
	FieldDuration = "duration"
	FieldSubject  = "subject"
	FieldAttendee = "attendee_email"
)

// Form holds the raw booking fields as submitted.
type Form struct {
	Date          string
	Time          string
	Duration      string
	Subject       string
	AttendeeEmail string
}

// DefaultForm returns the prefilled form: today at 10:00 for 30 minutes.
func DefaultForm(now time.Time, loc *time.Location) Form {
	return Form{
		Date:     now.In(loc).Format(DateLayout),
		Time:     "10:00",
		Duration: strconv.Itoa(DefaultDuration),
		Subject:  DefaultSubject,
	}
}

// Request is a validated booking.
type Request struct {
	// Start is the meeting start in the configured location.
	Start           time.Time
	DurationMinutes int
	Subject         string

	// AttendeeEmail is empty when no attendee was given.
	AttendeeEmail string
}

// End returns Start plus the meeting length.
func (r Request) End() time.Time {
	return r.Start.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

// check re-validates the invariants of a Request built without Validate.
func (r Request) check() error {
	if r.Start.IsZero() {
		return &ValidationError{Field: FieldDate, Message: "is required"}
	}
	if r.DurationMinutes < MinDuration || r.DurationMinutes > MaxDuration {
		return durationRangeError()
	}
	if strings.TrimSpace(r.Subject) == "" {
		return &ValidationError{Field: FieldSubject, Message: "is required"}
	}
	return nil
}

// ValidationError names the first form field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidationErrors is the list of every invalid field in form order.
type ValidationErrors []*ValidationError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// ByField returns the message for field, or the empty string.
func (v ValidationErrors) ByField(field string) string {
	for _, e := range v {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

func durationRangeError() *ValidationError {
	return &ValidationError{
		Field:   FieldDuration,
		Message: fmt.Sprintf("must be between %d and %d minutes", MinDuration, MaxDuration),
	}
}

// Validate checks the form against now in loc and returns the first invalid
// field as a *ValidationError. No partial Request is returned on failure.
func Validate(form Form, now time.Time, loc *time.Location) (Request, error) {
	req, errs := ValidateAll(form, now, loc)
	if len(errs) > 0 {
		return Request{}, errs[0]
	}
	return req, nil
}

// ValidateAll checks every field and returns all failures in form order.
func ValidateAll(form Form, now time.Time, loc *time.Location) (Request, ValidationErrors) {
	if loc == nil {
		loc = time.UTC
	}

	var errs ValidationErrors
	fail := func(field, msg string) {
		errs = append(errs, &ValidationError{Field: field, Message: msg})
	}

	date, err := time.ParseInLocation(DateLayout, strings.TrimSpace(form.Date), loc)
	switch {
	case strings.TrimSpace(form.Date) == "":
		fail(FieldDate, "is required")
	case err != nil:
		fail(FieldDate, "must be a date in YYYY-MM-DD format")
	default:
		local := now.In(loc)
		today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		if date.Before(today) {
			fail(FieldDate, "must be today or later")
		}
	}

	clock, ok := parseClock(form.Time)
	if !ok {
		fail(FieldTime, "must be a time in HH:MM format")
	}

	duration, err := strconv.Atoi(strings.TrimSpace(form.Duration))
	switch {
	case err != nil:
		fail(FieldDuration, "must be a whole number of minutes")
	case duration < MinDuration || duration > MaxDuration:
		errs = append(errs, durationRangeError())
	}

	subject := strings.TrimSpace(form.Subject)
	if subject == "" {
		fail(FieldSubject, "is required")
	}

	attendee := strings.TrimSpace(form.AttendeeEmail)
	if attendee != "" && !validAddress(attendee) {
		fail(FieldAttendee, "must be a single valid email address")
	}

	if len(errs) > 0 {
		return Request{}, errs
	}

	return Request{
		Start:           time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, loc),
		DurationMinutes: duration,
		Subject:         subject,
		AttendeeEmail:   attendee,
	}, nil
}

// parseClock accepts HH:MM and the HH:MM:SS form some browsers submit.
func parseClock(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{TimeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// validAddress accepts exactly one bare address such as a@b.com.
func validAddress(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == s && strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".")
}
