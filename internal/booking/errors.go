package booking

import (
	"errors"

	"github.com/teemow/slotbooker/internal/calendar"
)

// ErrNotAuthenticated is returned by Submit when the session holds no valid
// token. No remote call is made.
var ErrNotAuthenticated = errors.New("not authenticated: connect your calendar first")

// SubmissionError wraps a create-event failure reported by the provider or
// the transport. The booking was not created.
type SubmissionError struct {
	Provider string
	Err      error
}

// Error implements the error interface
func (e *SubmissionError) Error() string {
	return "failed to create booking: " + e.Detail()
}

// Unwrap returns the underlying error
func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Detail returns the provider's message verbatim when there is one.
func (e *SubmissionError) Detail() string {
	var apiErr *calendar.APIError
	if errors.As(e.Err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

// Status returns the provider's HTTP status, or 0 for transport failures.
func (e *SubmissionError) Status() int {
	var apiErr *calendar.APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
