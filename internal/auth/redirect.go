package auth

import (
	"net/url"
	"strings"
)

// Redirect holds the authorization response parameters.
type Redirect struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// ParseRedirect extracts the authorization response from text returned by
// the provider. It accepts a full redirect URL, a URL carrying the parameters
// in its fragment, or a bare query string, and ignores surrounding whitespace
// and unrelated parameters. Query parameters win over fragment parameters.
func ParseRedirect(raw string) (Redirect, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Redirect{}, ErrNoRedirectParams
	}

	var query, fragment string
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		query = raw[i+1:]
		if j := strings.IndexByte(query, '#'); j >= 0 {
			query, fragment = query[:j], query[j+1:]
		}
	} else if i := strings.IndexByte(raw, '#'); i >= 0 {
		fragment = raw[i+1:]
	} else {
		query = raw
	}

	// Decoding errors are tolerated; ParseQuery keeps every valid pair.
	values, _ := url.ParseQuery(query)
	extra, _ := url.ParseQuery(fragment)
	for k, v := range extra {
		if _, ok := values[k]; !ok {
			values[k] = v
		}
	}

	r := Redirect{
		Code:             values.Get("code"),
		State:            values.Get("state"),
		Error:            values.Get("error"),
		ErrorDescription: values.Get("error_description"),
	}
	if r.Code == "" && r.State == "" && r.Error == "" {
		return r, ErrNoRedirectParams
	}
	return r, nil
}
