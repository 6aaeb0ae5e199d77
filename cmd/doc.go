// Package cmd implements the command-line interface for slotbooker.
//
// This package provides the following commands:
//   - serve: Serve the booking page (default)
//   - book: Authorize in the terminal and book a single meeting
//   - version: Display version information
//
// Both serve and book read CLIENT_ID, CLIENT_SECRET, TENANT_ID and
// REDIRECT_URI from the environment or a .env file.
package cmd
