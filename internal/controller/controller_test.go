package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/titandash-console/internal/config"
	"github.com/yourusername/titandash-console/internal/dashboard"
	"github.com/yourusername/titandash-console/internal/timer"
	"github.com/yourusername/titandash-console/internal/titandash"
	"github.com/yourusername/titandash-console/internal/tui"
)

// spySurface records text writes on top of the headless surface
type spySurface struct {
	dashboard.Surface
	mu      sync.Mutex
	texts   map[dashboard.Region][]string
	removed []dashboard.Region
}

func newSpySurface() *spySurface {
	return &spySurface{
		Surface: tui.NewHeadless(zerolog.Nop(), nil),
		texts:   make(map[dashboard.Region][]string),
	}
}

func (s *spySurface) SetText(r dashboard.Region, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts[r] = append(s.texts[r], text)
}

func (s *spySurface) Remove(r dashboard.Region) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, r)
}

func (s *spySurface) history(r dashboard.Region) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts[r]...)
}

func (s *spySurface) wasRemoved(r dashboard.Region) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, got := range s.removed {
		if got == r {
			return true
		}
	}
	return false
}

type fakeAPI struct {
	snapshot *titandash.Snapshot
	err      error
}

func (f *fakeAPI) GetInstance(context.Context) (*titandash.Snapshot, error) {
	return f.snapshot, f.err
}

func (f *fakeAPI) SendSignal(context.Context, titandash.Signal, string) error {
	return nil
}

// fakeStream replays a fixed list of snapshots then waits for cancellation
type fakeStream struct {
	snapshots []*titandash.Snapshot
	updates   chan *titandash.Snapshot
	started   chan struct{}
}

func newFakeStream(snapshots ...*titandash.Snapshot) *fakeStream {
	return &fakeStream{
		snapshots: snapshots,
		updates:   make(chan *titandash.Snapshot),
		started:   make(chan struct{}),
	}
}

func (f *fakeStream) Run(ctx context.Context) error {
	defer close(f.updates)
	close(f.started)
	for _, s := range f.snapshots {
		select {
		case f.updates <- s:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeStream) Updates() <-chan *titandash.Snapshot { return f.updates }
func (f *fakeStream) Connected() bool                    { return true }

// countingTimers builds inert timers and tracks how many are live
type countingTimers struct {
	mu   sync.Mutex
	live int
}

type countingTimer struct {
	owner *countingTimers
	once  sync.Once
}

func (t *countingTimer) Destroy() bool {
	destroyed := false
	t.once.Do(func() {
		t.owner.mu.Lock()
		t.owner.live--
		t.owner.mu.Unlock()
		destroyed = true
	})
	return destroyed
}

func (c *countingTimers) add() dashboard.Timer {
	c.mu.Lock()
	c.live++
	c.mu.Unlock()
	return &countingTimer{owner: c}
}

func (c *countingTimers) NewStopwatch(time.Time, string, timer.Label) dashboard.Timer { return c.add() }
func (c *countingTimers) NewCountdown(time.Time, timer.Label) dashboard.Timer         { return c.add() }

func (c *countingTimers) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

func testConfig() *config.Config {
	return &config.Config{
		ServerURL:      "http://localhost:8000",
		RequestTimeout: time.Second,
		ReadTimeout:    time.Second,
		ReconnectMin:   10 * time.Millisecond,
		ReconnectMax:   50 * time.Millisecond,
		GracePeriod:    time.Millisecond,
		TickInterval:   time.Second,
	}
}

func snapshot(state titandash.State) *titandash.Snapshot {
	s := &titandash.Snapshot{State: state}
	if s.Active() {
		s.Started = titandash.Instant{Raw: "2026-01-02T10:00:00Z"}
		s.NextPrestige = titandash.Instant{Raw: "2026-01-02T11:00:00Z"}
	}
	return s
}

func TestControllerAppliesInitialThenPushedInOrder(t *testing.T) {
	surface := newSpySurface()
	timers := &countingTimers{}
	stream := newFakeStream(snapshot(titandash.StatePaused), snapshot(titandash.StateStopped), snapshot(titandash.StateRunning))
	c := newController(testConfig(), &fakeAPI{snapshot: snapshot(titandash.StateRunning)}, stream, surface, timers, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(surface.history(dashboard.RegionState)) == 4
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"RUNNING", "PAUSED", "N/A", "RUNNING"}, surface.history(dashboard.RegionState))
	assert.True(t, surface.wasRemoved(dashboard.RegionInstanceLoader))
	assert.True(t, c.Ready())
	assert.Equal(t, 2, timers.Live())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("controller did not stop")
	}
	assert.Equal(t, 0, timers.Live())
}

func TestControllerInitialFetchFailureStillSubscribes(t *testing.T) {
	surface := newSpySurface()
	stream := newFakeStream(snapshot(titandash.StateStopped))
	c := newController(testConfig(), &fakeAPI{err: errors.New("connection refused")}, stream, surface, &countingTimers{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	select {
	case <-stream.started:
	case <-time.After(2 * time.Second):
		t.Fatal("push stream was never started")
	}
	require.Eventually(t, func() bool {
		return len(surface.history(dashboard.RegionState)) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, surface.wasRemoved(dashboard.RegionInstanceLoader))
}

func TestControllerCancelledDuringGracePeriod(t *testing.T) {
	cfg := testConfig()
	cfg.GracePeriod = time.Hour
	stream := newFakeStream()
	c := newController(cfg, &fakeAPI{}, stream, newSpySurface(), &countingTimers{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.Run(ctx), context.Canceled)

	select {
	case <-stream.started:
		t.Fatal("stream started after cancellation")
	default:
	}
}

func TestControllerAgainstServer(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	mux := http.NewServeMux()
	mux.HandleFunc("/ajax/bot_instance/get", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"state": "STOPPED", "session": {"uuid": "N/A", "url": "#"}}`))
	})
	mux.HandleFunc("/ws/instance/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"instance": {"instance": {
			"state": "RUNNING",
			"session": {"uuid": "abc", "url": "/session/abc"},
			"started": {"datetime": "2026-01-02T10:00:00Z", "formatted": "Jan 2, 10:00"},
			"current_function": "tap",
			"log_file": "N/A",
			"configuration": {"name": "Default", "url": "/configuration/1"},
			"next_artifact_upgrade": {"title": null, "image": ""},
			"current_stage": {"stage": "4100", "diff_from_max": 3, "percent_from_max": "97%"},
			"next_prestige": {"datetime": "2026-01-02T11:00:00Z", "formatted": "11:00"}
		}}}`))
		conn.ReadMessage()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.ServerURL = srv.URL
	surface := newSpySurface()
	c, err := NewController(cfg, surface, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool {
		states := surface.history(dashboard.RegionState)
		return len(states) == 2 && states[1] == "RUNNING"
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "N/A", surface.history(dashboard.RegionState)[0])
	assert.Contains(t, surface.history(dashboard.RegionCurrentFunction), "tap")
	require.Eventually(t, c.Ready, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("controller did not stop")
	}
}
