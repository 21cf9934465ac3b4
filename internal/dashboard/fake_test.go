package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/titandash-console/internal/timer"
	"github.com/yourusername/titandash-console/internal/titandash"
)

// recordingSurface keeps the latest value per region and a log of every write
type recordingSurface struct {
	mu       sync.Mutex
	calls    []string
	text     map[Region]string
	opacity  map[Region]float64
	visible  map[Region]bool
	enabled  map[Region]bool
	controls map[Region]Control
	stages   map[Region]StageView
	status   map[Region]string
	selected string
	notices  []string
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{
		text:     make(map[Region]string),
		opacity:  make(map[Region]float64),
		visible:  make(map[Region]bool),
		enabled:  make(map[Region]bool),
		controls: make(map[Region]Control),
		stages:   make(map[Region]StageView),
		status:   make(map[Region]string),
	}
}

func (s *recordingSurface) record(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

func (s *recordingSurface) SetText(r Region, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("text %s=%s", r, text)
	s.text[r] = text
}

func (s *recordingSurface) SetLink(r Region, text, href string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("link %s=%s|%s", r, text, href)
	s.text[r] = text + "|" + href
}

func (s *recordingSurface) SetStatus(r Region, icon Icon, color Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("status %s=%d/%d", r, icon, color)
	s.status[r] = fmt.Sprintf("%d/%d", icon, color)
}

func (s *recordingSurface) SetStage(r Region, stage StageView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("stage %s=%+v", r, stage)
	s.stages[r] = stage
}

func (s *recordingSurface) SetArtifact(r Region, title, image string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("artifact %s=%s|%s", r, title, image)
	s.text[r] = title + "|" + image
}

func (s *recordingSurface) SetOpacity(r Region, opacity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("opacity %s=%.1f", r, opacity)
	s.opacity[r] = opacity
}

func (s *recordingSurface) SetVisible(r Region, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("visible %s=%t", r, visible)
	s.visible[r] = visible
}

func (s *recordingSurface) SetEnabled(r Region, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("enabled %s=%t", r, enabled)
	s.enabled[r] = enabled
}

func (s *recordingSurface) ClearTable(r Region) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("clear %s", r)
}

func (s *recordingSurface) Remove(r Region) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("remove %s", r)
}

func (s *recordingSurface) SetControl(r Region, c Control) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("control %s=%t", r, c.Enabled)
	s.controls[r] = c
}

func (s *recordingSurface) SelectConfig(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("select %s", name)
	s.selected = name
}

func (s *recordingSurface) SelectedConfig() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *recordingSurface) Notify(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, message)
}

func (s *recordingSurface) Label(r Region) timer.Label {
	return timer.LabelFunc(func(text string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.text[r] = text
	})
}

func (s *recordingSurface) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *recordingSurface) textOf(r Region) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text[r]
}

// fakeTimer records whether it was destroyed
type fakeTimer struct {
	kind      string
	at        time.Time
	destroyed bool
}

func (t *fakeTimer) Destroy() bool {
	if t.destroyed {
		return false
	}
	t.destroyed = true
	return true
}

// fakeTimers counts timers created through it
type fakeTimers struct {
	created []*fakeTimer
}

func (f *fakeTimers) NewStopwatch(start time.Time, _ string, _ timer.Label) Timer {
	t := &fakeTimer{kind: "stopwatch", at: start}
	f.created = append(f.created, t)
	return t
}

func (f *fakeTimers) NewCountdown(target time.Time, _ timer.Label) Timer {
	t := &fakeTimer{kind: "countdown", at: target}
	f.created = append(f.created, t)
	return t
}

func (f *fakeTimers) live(kind string) int {
	n := 0
	for _, t := range f.created {
		if t.kind == kind && !t.destroyed {
			n++
		}
	}
	return n
}

func (f *fakeTimers) count(kind string) int {
	n := 0
	for _, t := range f.created {
		if t.kind == kind {
			n++
		}
	}
	return n
}

// recordingSender captures signals
type recordingSender struct {
	mu      sync.Mutex
	signals []titandash.Signal
	configs []string
	err     error
}

func (r *recordingSender) SendSignal(_ context.Context, signal titandash.Signal, config string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, signal)
	r.configs = append(r.configs, config)
	return r.err
}

func strPtr(s string) *string { return &s }

func numPtr(n int) *titandash.Number {
	v := titandash.Number(n)
	return &v
}

func instant(raw string) titandash.Instant {
	return titandash.Instant{Raw: raw, Formatted: raw}
}

func runningSnapshot() *titandash.Snapshot {
	return &titandash.Snapshot{
		State:           titandash.StateRunning,
		Session:         titandash.Session{UUID: "abc-123", URL: "/session/abc-123"},
		Started:         instant("2026-01-02T10:00:00Z"),
		CurrentFunction: strPtr("tap"),
		LogFile:         "/logs/bot.log",
		Configuration:   titandash.Configuration{Name: "Default", URL: "/configuration/1"},
		NextArtifactUpgrade: titandash.ArtifactUpgrade{
			Title: strPtr("Book of Shadows"),
			Image: "/static/artifacts/bos.png",
		},
		CurrentStage: titandash.Stage{
			Stage:          numPtr(4100),
			DiffFromMax:    3,
			PercentFromMax: "97%",
		},
		NextPrestige:    instant("2026-01-02T11:00:00Z"),
		NextActionRun:   instant("2026-01-02T10:05:00Z"),
		NextWarCry:      instant("2026-01-02T10:01:00Z"),
		NextFireSword:   instant("2026-01-02T10:01:30Z"),
		NextStatsUpdate: instant("2026-01-02T12:00:00Z"),
	}
}
