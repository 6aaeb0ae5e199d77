// Package config loads the process-wide settings for slotbooker.
//
// Settings are read once at startup from the environment, optionally seeded
// from a .env file. The OAuth client credentials, the tenant and the redirect
// URI are required; when any of them is missing Load fails with
// ErrConfiguration and the process must halt before serving any page.
package config
