package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrConfiguration is returned when required settings are missing or invalid.
var ErrConfiguration = errors.New("configuration error")

// Calendar provider identifiers.
const (
	ProviderMicrosoft = "microsoft"
	ProviderGoogle    = "google"
)

// DefaultEnvFile is loaded when present; its absence is not an error.
const DefaultEnvFile = ".env"

// Config holds the settings read at startup.
type Config struct {
	ClientID     string `env:"CLIENT_ID,required,notEmpty"`
	ClientSecret string `env:"CLIENT_SECRET,required,notEmpty"`
	TenantID     string `env:"TENANT_ID,required,notEmpty"`
	RedirectURI  string `env:"REDIRECT_URI,required,notEmpty"`

	// Provider selects the calendar backend: "microsoft" (Graph) or "google".
	Provider string `env:"CALENDAR_PROVIDER" envDefault:"microsoft"`

	// Scopes overrides the provider's default OAuth scopes.
	Scopes []string `env:"OAUTH_SCOPES" envSeparator:","`

	// TimeZone is the IANA zone booking dates and times are interpreted in.
	TimeZone string `env:"CALENDAR_TIMEZONE" envDefault:"UTC"`

	GoogleCalendarID string `env:"GOOGLE_CALENDAR_ID" envDefault:"primary"`
	GraphBaseURL     string `env:"GRAPH_BASE_URL" envDefault:"https://graph.microsoft.com/v1.0"`

	// OwnerName is shown in the status banner when the ID token carries no name.
	OwnerName string `env:"OWNER_NAME"`
}

// Load reads the optional env files and then parses the process environment.
// When no file is named, DefaultEnvFile is tried and silently skipped if absent.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: failed to read %s: %v", ErrConfiguration, DefaultEnvFile, err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, fmt.Errorf("%w: failed to read env file: %v", ErrConfiguration, err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, cfg.Validate()
}

// Parse builds a Config from the given variables instead of the process environment.
func Parse(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the values that env tags cannot express.
func (c *Config) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	switch c.Provider {
	case ProviderMicrosoft, ProviderGoogle:
	default:
		return fmt.Errorf("%w: unsupported CALENDAR_PROVIDER %q (supported: %s, %s)",
			ErrConfiguration, c.Provider, ProviderMicrosoft, ProviderGoogle)
	}

	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("%w: invalid CALENDAR_TIMEZONE %q: %v", ErrConfiguration, c.TimeZone, err)
	}

	if err := validateRedirectURI(c.RedirectURI); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	c.Scopes = trimList(c.Scopes)
	return nil
}

// Location returns the configured time zone. Validate must have succeeded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// validateRedirectURI requires https, allowing plain http only for loopback hosts.
func validateRedirectURI(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid REDIRECT_URI: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid REDIRECT_URI %q: missing host", raw)
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("REDIRECT_URI must use https outside of localhost (got: %s)", raw)
		}
		return nil
	default:
		return fmt.Errorf("invalid REDIRECT_URI scheme %q: must be http (localhost only) or https", u.Scheme)
	}
}

// trimList trims whitespace from each element and drops empty ones.
func trimList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
