package titandash

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetInstance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, instanceEndpoint, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(runningInstance))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, zerolog.Nop())
	s, err := c.GetInstance(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateRunning, s.State)
	require.Equal(t, "3f2a6c1e-6f1b-4d7e-9a51-2d1c0c7b9e11", s.Session.UUID)
}

func TestClient_GetInstanceErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus bool
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantStatus: true},
		{name: "bad json", status: http.StatusOK, body: "{", wantStatus: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, time.Second, zerolog.Nop())
			_, err := c.GetInstance(context.Background())
			require.Error(t, err)
			require.Equal(t, tt.wantStatus, errors.Is(err, ErrUnexpectedStatus))
		})
	}
}

func TestClient_SendSignal(t *testing.T) {
	tests := []struct {
		name       string
		signal     Signal
		config     string
		wantConfig string
	}{
		{name: "play carries config", signal: SignalPlay, config: "7", wantConfig: "7"},
		{name: "pause has no config", signal: SignalPause, config: "7", wantConfig: ""},
		{name: "stop has no config", signal: SignalStop, config: "7", wantConfig: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSignal, gotConfig, gotRequestID string
			var hasConfig bool
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, signalEndpoint, r.URL.Path)
				gotSignal = r.URL.Query().Get("signal")
				gotConfig = r.URL.Query().Get("config")
				_, hasConfig = r.URL.Query()["config"]
				gotRequestID = r.Header.Get("X-Request-ID")
				w.Write([]byte(`{}`))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, time.Second, zerolog.Nop())
			require.NoError(t, c.SendSignal(context.Background(), tt.signal, tt.config))
			require.Equal(t, string(tt.signal), gotSignal)
			require.Equal(t, tt.wantConfig, gotConfig)
			require.Equal(t, tt.wantConfig != "", hasConfig)
			require.NotEmpty(t, gotRequestID)
		})
	}
}

func TestClient_SendSignalFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zerolog.Nop())
	err := c.SendSignal(context.Background(), SignalStop, "")
	require.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestClient_SocketURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{base: "http://localhost:8000", want: "ws://localhost:8000/ws/instance/"},
		{base: "https://bot.example.com/", want: "wss://bot.example.com/ws/instance/"},
		{base: "http://host/titandash", want: "ws://host/titandash/ws/instance/"},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := NewClient(tt.base, time.Second, zerolog.Nop()).SocketURL()
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
