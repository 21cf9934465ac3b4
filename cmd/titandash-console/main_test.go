package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	ready := false
	h := healthHandler(func() bool { return ready })

	tests := []struct {
		name   string
		path   string
		ready  bool
		status int
	}{
		{name: "liveness", path: "/healthz", ready: false, status: http.StatusOK},
		{name: "not ready", path: "/readyz", ready: false, status: http.StatusServiceUnavailable},
		{name: "ready", path: "/readyz", ready: true, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ready = tt.ready
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestSetupLogging(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := setupLogging("warn", &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"service":"titandash-console"`)
	require.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	setupLogging("nonsense", &buf)
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
