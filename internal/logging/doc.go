// Package logging provides structured logging utilities for slotbooker.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "booking.submit")
//	logger.Info("event created",
//	    logging.Status(logging.StatusSuccess))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("booking received",
//	    logging.UserHash(attendeeEmail))
//
// # Security Considerations
//
//   - Attendee emails are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly, only their length via SanitizeToken
package logging
