package timer

import (
	"fmt"
	"sync"
	"time"
)

// Option configures a Stopwatch or Countdown.
type Option func(*options)

type options struct {
	interval time.Duration
	now      func() time.Time
	format   string
}

func defaultOptions() options {
	return options{
		interval: time.Second,
		now:      time.Now,
		format:   FormatPadded,
	}
}

// WithInterval sets the tick interval. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithFormat sets the format hint passed to FormatDuration.
func WithFormat(format string) Option {
	return func(o *options) { o.format = format }
}

// ticker owns the goroutine shared by both widgets. Once destroyed it never writes
// to its label again.
type ticker struct {
	label  Label
	render func(now time.Time) string
	now    func() time.Time

	mu      sync.Mutex
	stopped bool
	stop    chan struct{}
	once    sync.Once
}

func startTicker(label Label, interval time.Duration, now func() time.Time, render func(time.Time) string) *ticker {
	t := &ticker{
		label:  label,
		render: render,
		now:    now,
		stop:   make(chan struct{}),
	}
	t.tick()
	go t.run(interval)
	return t
}

func (t *ticker) run(interval time.Duration) {
	tk := time.NewTicker(interval)
	defer tk.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-tk.C:
			t.tick()
		}
	}
}

func (t *ticker) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.label.SetText(t.render(t.now()))
}

func (t *ticker) destroy() bool {
	first := false
	t.once.Do(func() {
		t.mu.Lock()
		t.stopped = true
		t.mu.Unlock()
		close(t.stop)
		first = true
	})
	return first
}

// Stopwatch counts up from a start instant.
type Stopwatch struct {
	origin time.Time
	t      *ticker
}

// NewStopwatch starts a stopwatch rendering into label. When formatted is non-empty
// the label reads "<formatted> (<elapsed>)".
func NewStopwatch(start time.Time, formatted string, label Label, opts ...Option) *Stopwatch {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	render := func(now time.Time) string {
		elapsed := FormatDuration(now.Sub(start), o.format)
		if formatted == "" {
			return elapsed
		}
		return fmt.Sprintf("%s (%s)", formatted, elapsed)
	}
	return &Stopwatch{
		origin: start,
		t:      startTicker(label, o.interval, o.now, render),
	}
}

// Origin returns the start instant.
func (s *Stopwatch) Origin() time.Time { return s.origin }

// Destroy stops the stopwatch. It reports whether this call did the stopping.
func (s *Stopwatch) Destroy() bool { return s.t.destroy() }

// Countdown counts down to a target instant and holds at zero once it passes.
type Countdown struct {
	origin time.Time
	t      *ticker
}

// NewCountdown starts a countdown rendering into label.
func NewCountdown(target time.Time, label Label, opts ...Option) *Countdown {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	render := func(now time.Time) string {
		return FormatDuration(target.Sub(now), o.format)
	}
	return &Countdown{
		origin: target,
		t:      startTicker(label, o.interval, o.now, render),
	}
}

// Origin returns the target instant.
func (c *Countdown) Origin() time.Time { return c.origin }

// Destroy stops the countdown. It reports whether this call did the stopping.
func (c *Countdown) Destroy() bool { return c.t.destroy() }
