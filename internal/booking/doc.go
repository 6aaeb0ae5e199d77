// Package booking turns a submitted booking form into exactly one calendar
// event with an online meeting attached.
//
// Validate checks the raw form fields and produces a Request; nothing is
// sent until every field is valid. Submitter.Submit then requires an
// authenticated session and issues a single create call through a
// calendar.Creator. Submissions are neither retried nor deduplicated: two
// identical submissions create two events.
package booking
