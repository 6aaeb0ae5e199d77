// Package web serves the single-operator booking page.
//
// The handler owns the one authorization session of the process. The owner
// connects their calendar with POST /connect, signs in at the provider, and
// either lets the provider redirect to /auth/callback or pastes the redirect
// URL into the page (POST /authorize). Once authenticated, POST /book
// validates the form and creates the meeting.
package web
