package calendar

import "fmt"

// APIError is a rejection reported by the calendar provider.
type APIError struct {
	Status  int    // HTTP status code
	Code    string // Provider error code (e.g., "ErrorAccessDenied", "forbidden")
	Message string // Provider message, verbatim
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("calendar API error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("calendar API error (status %d, %s): %s", e.Status, e.Code, e.Message)
}
