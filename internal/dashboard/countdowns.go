package dashboard

import (
	"github.com/rs/zerolog"
	"github.com/yourusername/titandash-console/internal/titandash"
)

type countdownEntry struct {
	timer  Timer
	origin string // raw datetime the timer was built for
}

// CountdownRegistry holds at most one live countdown per key. A timer is only ever
// replaced, never mutated, and only when the server sends a different instant.
type CountdownRegistry struct {
	surface Surface
	timers  TimerFactory
	logger  zerolog.Logger
	entries map[titandash.CountdownKey]*countdownEntry

	// onAttach is told when a timer starts writing to a region
	onAttach func(Region)
}

// NewCountdownRegistry creates an empty registry
func NewCountdownRegistry(surface Surface, timers TimerFactory, logger zerolog.Logger) *CountdownRegistry {
	return &CountdownRegistry{
		surface: surface,
		timers:  timers,
		logger:  logger,
		entries: make(map[titandash.CountdownKey]*countdownEntry),
	}
}

// Reconcile brings the timer for key in line with target. A zero target leaves any
// existing timer running. It reports whether a timer was created.
func (r *CountdownRegistry) Reconcile(key titandash.CountdownKey, target titandash.Instant) bool {
	if target.IsZero() {
		return false
	}

	current, ok := r.entries[key]
	if ok && current.origin == target.Raw {
		return false
	}

	at, err := target.Time()
	if err != nil {
		r.logger.Warn().Err(err).Str("countdown", string(key)).Msg("Ignoring countdown target")
		return false
	}

	if ok {
		current.timer.Destroy()
		delete(r.entries, key)
	}

	region := CountdownRegion(key)
	if r.onAttach != nil {
		r.onAttach(region)
	}
	r.entries[key] = &countdownEntry{
		timer:  r.timers.NewCountdown(at, r.surface.Label(region)),
		origin: target.Raw,
	}
	return true
}

// Live reports whether key has a running timer
func (r *CountdownRegistry) Live(key titandash.CountdownKey) bool {
	_, ok := r.entries[key]
	return ok
}

// Origin returns the raw instant the live timer for key was built for
func (r *CountdownRegistry) Origin(key titandash.CountdownKey) (string, bool) {
	entry, ok := r.entries[key]
	if !ok {
		return "", false
	}
	return entry.origin, true
}

// Len returns the number of live timers
func (r *CountdownRegistry) Len() int {
	return len(r.entries)
}

// DestroyAll stops every live timer
func (r *CountdownRegistry) DestroyAll() {
	for key, entry := range r.entries {
		entry.timer.Destroy()
		delete(r.entries, key)
	}
}
