package dashboard

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/yourusername/titandash-console/internal/metrics"
	"github.com/yourusername/titandash-console/internal/titandash"
)

const (
	// Placeholder shown for fields without a value while the instance is stopped
	Placeholder = "------"
	// InertLink is the href of a link that goes nowhere
	InertLink = "#"

	dimmed = 0.4
	opaque = 1.0
)

// Prestige summary placeholders, in display order
var prestigeDefaults = []struct {
	region Region
	text   string
}{
	{RegionPrestigeAvgDuration, "00:00:00"},
	{RegionPrestigeAvgStage, "0"},
	{RegionPrestigeThisSession, "0"},
	{RegionPrestigeLastArtifact, Placeholder},
}

// Projector renders snapshots onto a Surface. It remembers what it last rendered per
// region and only writes when the value changes, so applying the same snapshot twice
// touches nothing the second time. Apply must not be called concurrently.
type Projector struct {
	surface    Surface
	dispatcher *Dispatcher
	timers     TimerFactory
	countdowns *CountdownRegistry
	logger     zerolog.Logger

	stopwatch       Timer
	stopwatchOrigin string

	rendered map[Region]string
	opacity  map[Region]float64
	visible  map[Region]bool
	enabled  map[Region]bool
	cleared  map[Region]bool
	removed  map[Region]bool
	status   titandash.State
}

// ProjectorOption configures a Projector
type ProjectorOption func(*Projector)

// WithTimers replaces the timer factory
func WithTimers(f TimerFactory) ProjectorOption {
	return func(p *Projector) { p.timers = f }
}

// WithLogger sets the projector logger
func WithLogger(logger zerolog.Logger) ProjectorOption {
	return func(p *Projector) { p.logger = logger }
}

// NewProjector creates a projector writing to surface
func NewProjector(surface Surface, dispatcher *Dispatcher, opts ...ProjectorOption) *Projector {
	p := &Projector{
		surface:    surface,
		dispatcher: dispatcher,
		timers:     LiveTimers{},
		logger:     zerolog.Nop(),
		rendered:   make(map[Region]string),
		opacity:    make(map[Region]float64),
		visible:    make(map[Region]bool),
		enabled:    make(map[Region]bool),
		cleared:    make(map[Region]bool),
		removed:    make(map[Region]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With().Str("component", "projector").Logger()
	p.countdowns = NewCountdownRegistry(surface, p.timers, p.logger)
	p.countdowns.onAttach = p.forget
	return p
}

// Countdowns exposes the countdown registry
func (p *Projector) Countdowns() *CountdownRegistry {
	return p.countdowns
}

// StopwatchRunning reports whether a stopwatch is live
func (p *Projector) StopwatchRunning() bool {
	return p.stopwatch != nil
}

// Apply renders one snapshot
func (p *Projector) Apply(s *titandash.Snapshot) {
	start := time.Now()
	defer func() {
		metrics.ApplyDuration.Observe(time.Since(start).Seconds())
	}()

	active := s.Active()

	p.applyStatus(s.State)
	if active {
		p.applyActive(s)
	} else {
		p.applyInactive()
	}

	p.setVisible(RegionInstanceContent, true)

	if p.dispatcher != nil {
		p.dispatcher.Bind(s.State)
	}
	p.remove(RegionActionsLoader)
	p.setVisible(RegionActionsContent, true)

	p.logger.Debug().
		Str("state", string(s.State)).
		Bool("active", active).
		Int("countdowns", p.countdowns.Len()).
		Msg("Snapshot applied")
}

// Loaded removes the instance loader once the initial fetch has completed
func (p *Projector) Loaded() {
	p.remove(RegionInstanceLoader)
}

// Dispose destroys every live timer
func (p *Projector) Dispose() {
	p.destroyStopwatch()
	p.countdowns.DestroyAll()
}

func (p *Projector) applyStatus(state titandash.State) {
	if state != p.status {
		switch state {
		case titandash.StateRunning:
			p.surface.SetStatus(RegionStatusIcon, IconCheck, ColorSuccess)
		case titandash.StatePaused:
			p.surface.SetStatus(RegionStatusIcon, IconPause, ColorWarning)
		case titandash.StateStopped:
			p.surface.SetStatus(RegionStatusIcon, IconTimes, ColorDanger)
		}
		p.status = state
	}
	p.setVisible(RegionStatusIcon, true)
}

func (p *Projector) applyActive(s *titandash.Snapshot) {
	p.setEnabled(RegionConfigSelect, false)

	// Queued functions panel
	p.setVisible(RegionQueueInitial, false)
	p.setVisible(RegionQueueContent, true)
	p.setVisible(RegionQueueFunctions, true)
	p.setEnabled(RegionQueueFunctions, true)
	p.cleared[RegionQueueTable] = false
	p.cleared[RegionPrestigeTable] = false

	// Instance
	p.setText(RegionState, string(s.State))
	p.setLink(RegionSession, s.Session.UUID, s.Session.URL)
	p.reconcileStopwatch(s.Started)

	if s.CurrentFunction == nil {
		p.setOpacity(RegionCurrentFunction, dimmed)
	} else {
		p.setOpacity(RegionCurrentFunction, opaque)
		p.setText(RegionCurrentFunction, *s.CurrentFunction)
	}

	// Variables
	if s.LogFile == "" || s.LogFile == titandash.NotAvailable {
		p.setLink(RegionLogFile, Placeholder, InertLink)
	} else {
		p.setLink(RegionLogFile, "Link", s.LogFile)
	}

	if p.setLink(RegionConfiguration, s.Configuration.Name, s.Configuration.URL) {
		p.surface.SelectConfig(s.Configuration.Name)
	}

	p.applyArtifact(s.NextArtifactUpgrade)
	p.applyStage(s.CurrentStage)

	for _, key := range titandash.CountdownKeys {
		p.countdowns.Reconcile(key, s.Countdown(key))
		if p.countdowns.Live(key) {
			p.setOpacity(CountdownRegion(key), opaque)
		} else {
			p.setOpacity(CountdownRegion(key), dimmed)
		}
	}

	p.setVisible(RegionVariablesTable, true)
}

func (p *Projector) applyInactive() {
	p.setEnabled(RegionConfigSelect, true)

	p.destroyStopwatch()
	p.setText(RegionState, titandash.NotAvailable)
	p.setText(RegionStarted, titandash.NotAvailable)
	p.setLink(RegionSession, titandash.NotAvailable, InertLink)
	p.setText(RegionCurrentFunction, titandash.NotAvailable)

	// Prestiges
	for _, d := range prestigeDefaults {
		p.setText(d.region, d.text)
	}
	p.clearTable(RegionPrestigeTable)

	// Queued functions
	p.clearTable(RegionQueueTable)
	p.setVisible(RegionQueueContent, false)
	p.setEnabled(RegionQueueFunctions, false)
	p.setVisible(RegionQueueFunctions, false)
	p.setVisible(RegionQueueInitial, true)

	// Variables; countdowns are stopped so they cannot overwrite the placeholders
	p.countdowns.DestroyAll()
	for _, region := range VariableRegions() {
		p.setText(region, Placeholder)
	}
	p.setVisible(RegionVariablesTable, false)
}

func (p *Projector) reconcileStopwatch(started titandash.Instant) {
	if started.IsZero() {
		return
	}
	if p.stopwatch != nil && p.stopwatchOrigin == started.Raw {
		return
	}

	at, err := started.Time()
	if err != nil {
		p.logger.Warn().Err(err).Msg("Ignoring started instant")
		return
	}

	p.destroyStopwatch()
	p.forget(RegionStarted)
	p.stopwatch = p.timers.NewStopwatch(at, started.Formatted, p.surface.Label(RegionStarted))
	p.stopwatchOrigin = started.Raw
}

func (p *Projector) destroyStopwatch() {
	if p.stopwatch == nil {
		return
	}
	p.stopwatch.Destroy()
	p.stopwatch = nil
	p.stopwatchOrigin = ""
}

func (p *Projector) applyArtifact(a titandash.ArtifactUpgrade) {
	if a.Title == nil {
		if shown, ok := p.rendered[RegionNextArtifactUpgrade]; !ok || shown == Placeholder {
			p.setOpacity(RegionNextArtifactUpgrade, dimmed)
		}
		return
	}

	p.setOpacity(RegionNextArtifactUpgrade, opaque)
	key := *a.Title + "\x00" + a.Image
	if p.rendered[RegionNextArtifactUpgrade] != key {
		p.surface.SetArtifact(RegionNextArtifactUpgrade, *a.Title, a.Image)
		p.rendered[RegionNextArtifactUpgrade] = key
	}
}

func (p *Projector) applyStage(st titandash.Stage) {
	if st.Stage == nil {
		if shown, ok := p.rendered[RegionCurrentStage]; !ok || shown == Placeholder {
			p.setOpacity(RegionCurrentStage, dimmed)
		}
		return
	}

	p.setOpacity(RegionCurrentStage, opaque)
	view := StageViewFor(int(*st.Stage), int(st.DiffFromMax), st.PercentFromMax)
	key := fmt.Sprintf("%d|%d|%s|%d|%d", view.Stage, view.Magnitude, view.Percent, view.Color, view.Icon)
	if p.rendered[RegionCurrentStage] != key {
		p.surface.SetStage(RegionCurrentStage, view)
		p.rendered[RegionCurrentStage] = key
	}
}

// StageViewFor applies the stage coloring rule: behind the max stage is red with a
// minus, ahead of it is green with a plus, level is neutral without an icon.
func StageViewFor(stage, diff int, percent string) StageView {
	view := StageView{Stage: stage, Percent: percent}
	switch {
	case diff > 0:
		view.Color, view.Icon, view.Magnitude = ColorDanger, IconMinus, diff
	case diff < 0:
		view.Color, view.Icon, view.Magnitude = ColorSuccess, IconPlus, -diff
	default:
		view.Color, view.Icon = ColorNeutral, IconNone
	}
	return view
}

// FormatStage renders a stage view as plain text
func FormatStage(v StageView) string {
	sign := ""
	switch v.Icon {
	case IconMinus:
		sign = "-"
	case IconPlus:
		sign = "+"
	}
	return strconv.Itoa(v.Stage) + " (" + sign + strconv.Itoa(v.Magnitude) + ") (" + v.Percent + ")"
}

// forget drops the cached value of a region another writer now owns
func (p *Projector) forget(r Region) {
	delete(p.rendered, r)
}

func (p *Projector) setText(r Region, text string) bool {
	if shown, ok := p.rendered[r]; ok && shown == text {
		return false
	}
	p.surface.SetText(r, text)
	p.rendered[r] = text
	return true
}

func (p *Projector) setLink(r Region, text, href string) bool {
	key := text + "\x00" + href
	if shown, ok := p.rendered[r]; ok && shown == key {
		return false
	}
	p.surface.SetLink(r, text, href)
	p.rendered[r] = key
	return true
}

func (p *Projector) setOpacity(r Region, opacity float64) {
	if current, ok := p.opacity[r]; ok && current == opacity {
		return
	}
	p.surface.SetOpacity(r, opacity)
	p.opacity[r] = opacity
}

func (p *Projector) setVisible(r Region, visible bool) {
	if current, ok := p.visible[r]; ok && current == visible {
		return
	}
	p.surface.SetVisible(r, visible)
	p.visible[r] = visible
}

func (p *Projector) setEnabled(r Region, enabled bool) {
	if current, ok := p.enabled[r]; ok && current == enabled {
		return
	}
	p.surface.SetEnabled(r, enabled)
	p.enabled[r] = enabled
}

func (p *Projector) clearTable(r Region) {
	if p.cleared[r] {
		return
	}
	p.surface.ClearTable(r)
	p.cleared[r] = true
}

func (p *Projector) remove(r Region) {
	if p.removed[r] {
		return
	}
	p.surface.Remove(r)
	p.removed[r] = true
}
