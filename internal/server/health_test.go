package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker("microsoft", nil)
	h.MarkShuttingDown()

	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name         string
		setup        func(*HealthChecker)
		wantStatus   int
		wantReady    string
		wantShutdown string
	}{
		{
			name:         "ready",
			setup:        func(*HealthChecker) {},
			wantStatus:   http.StatusOK,
			wantReady:    healthStatusOK,
			wantShutdown: healthStatusOK,
		},
		{
			name:         "not ready",
			setup:        func(h *HealthChecker) { h.SetReady(false) },
			wantStatus:   http.StatusServiceUnavailable,
			wantReady:    healthStatusNotReady,
			wantShutdown: healthStatusOK,
		},
		{
			name:         "shutting down",
			setup:        func(h *HealthChecker) { h.MarkShuttingDown() },
			wantStatus:   http.StatusServiceUnavailable,
			wantReady:    healthStatusOK,
			wantShutdown: healthStatusShuttingDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker("microsoft", nil)
			tt.setup(h)

			rec := httptest.NewRecorder()
			h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantReady, resp.Checks["ready"])
			assert.Equal(t, tt.wantShutdown, resp.Checks["shutdown"])
			assert.Equal(t, tt.wantStatus == http.StatusOK, h.IsReady())
		})
	}
}

func TestHealthChecker_Detailed(t *testing.T) {
	authenticated := false
	h := NewHealthChecker("google", func() bool { return authenticated })

	get := func() (int, DetailedHealthResponse) {
		rec := httptest.NewRecorder()
		h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))
		var resp DetailedHealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return rec.Code, resp
	}

	code, resp := get()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, healthStatusOK, resp.Status)
	assert.Equal(t, "google", resp.Provider)
	assert.False(t, resp.Authenticated)
	assert.True(t, strings.HasSuffix(resp.Uptime, "s"))

	authenticated = true
	_, resp = get()
	assert.True(t, resp.Authenticated)

	h.MarkShuttingDown()
	code, resp = get()
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, healthStatusShuttingDown, resp.Status)
}

func TestHealthChecker_RegisterHealthEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthChecker("microsoft", nil).RegisterHealthEndpoints(mux)

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
