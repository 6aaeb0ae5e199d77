package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/slotbooker/internal/instrumentation"
)

func appHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("page"))
	})
	mux.HandleFunc("POST /book", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	return mux
}

func newTestMetrics(t *testing.T) (*instrumentation.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := instrumentation.NewMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

// requestPaths returns the path label of every http_requests_total point.
func requestPaths(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	paths := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				path, _ := dp.Attributes.Value("path")
				paths[path.AsString()] += dp.Value
			}
		}
	}
	return paths
}

func TestNewHTTPServer_RequiresHandler(t *testing.T) {
	_, err := NewHTTPServer(HTTPServerConfig{})
	assert.Error(t, err)
}

func TestHTTPServer_SecurityHeaders(t *testing.T) {
	tests := []struct {
		name     string
		hsts     bool
		wantHSTS bool
	}{
		{"plain http", false, false},
		{"https", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewHTTPServer(HTTPServerConfig{Handler: appHandler(), HSTS: tt.hsts})
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "page", rec.Body.String())
			assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
			assert.Equal(t, tt.wantHSTS, rec.Header().Get("Strict-Transport-Security") != "")
		})
	}
}

func TestHTTPServer_RequestMetrics(t *testing.T) {
	metrics, reader := newTestMetrics(t)
	s, err := NewHTTPServer(HTTPServerConfig{
		Handler: appHandler(),
		Health:  NewHealthChecker("microsoft", nil),
		Metrics: metrics,
	})
	require.NoError(t, err)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/", nil),
		httptest.NewRequest(http.MethodPost, "/book", nil),
		httptest.NewRequest(http.MethodPost, "/book", nil),
		httptest.NewRequest(http.MethodGet, "/healthz", nil),
	} {
		s.Handler().ServeHTTP(httptest.NewRecorder(), req)
	}

	paths := requestPaths(t, reader)
	assert.Equal(t, int64(1), paths["/"])
	assert.Equal(t, int64(2), paths["/book"])
	assert.Equal(t, int64(1), paths["/healthz"])
}

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"", "unmatched"},
		{"GET /{$}", "/"},
		{"POST /book", "/book"},
		{"/", "/"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Pattern = tt.pattern
		assert.Equal(t, tt.want, routeLabel(r), tt.pattern)
	}
}

func TestHTTPServer_ServeAndShutdown(t *testing.T) {
	health := NewHealthChecker("microsoft", nil)
	s, err := NewHTTPServer(HTTPServerConfig{Addr: "127.0.0.1:0", Handler: appHandler(), Health: health})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:0", s.Addr())

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	serverErr := make(chan error, 1)
	go func() { serverErr <- s.Serve(l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/readyz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.False(t, health.IsReady())

	select {
	case err := <-serverErr:
		assert.True(t, errors.Is(err, http.ErrServerClosed))
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
