package dashboard

import (
	"time"

	"github.com/yourusername/titandash-console/internal/metrics"
	"github.com/yourusername/titandash-console/internal/timer"
)

// Timer is a live label-updating widget. Destroy reports whether the call stopped it.
type Timer interface {
	Destroy() bool
}

// TimerFactory builds the stopwatch and countdown widgets used by the projector.
type TimerFactory interface {
	NewStopwatch(start time.Time, formatted string, label timer.Label) Timer
	NewCountdown(target time.Time, label timer.Label) Timer
}

// LiveTimers builds real ticking timers.
type LiveTimers struct {
	Options []timer.Option
}

// NewStopwatch implements TimerFactory.
func (f LiveTimers) NewStopwatch(start time.Time, formatted string, label timer.Label) Timer {
	metrics.TimersCreatedTotal.WithLabelValues("stopwatch").Inc()
	return countedTimer{kind: "stopwatch", t: timer.NewStopwatch(start, formatted, label, f.Options...)}
}

// NewCountdown implements TimerFactory.
func (f LiveTimers) NewCountdown(target time.Time, label timer.Label) Timer {
	metrics.TimersCreatedTotal.WithLabelValues("countdown").Inc()
	return countedTimer{kind: "countdown", t: timer.NewCountdown(target, label, f.Options...)}
}

type countedTimer struct {
	kind string
	t    Timer
}

func (c countedTimer) Destroy() bool {
	if !c.t.Destroy() {
		return false
	}
	metrics.TimersDestroyedTotal.WithLabelValues(c.kind).Inc()
	return true
}
