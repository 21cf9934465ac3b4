package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/yourusername/titandash-console/internal/metrics"
	"github.com/yourusername/titandash-console/internal/titandash"
)

// SignalSender delivers control signals to the server
type SignalSender interface {
	SendSignal(ctx context.Context, signal titandash.Signal, config string) error
}

// availability is the start/pause/stop table keyed by state
var availability = map[titandash.State][3]bool{
	titandash.StateRunning: {false, true, true},
	titandash.StatePaused:  {true, false, false},
	titandash.StateStopped: {true, false, false},
}

var controls = [3]struct {
	signal titandash.Signal
	region Region
	icon   Icon
	color  Color
}{
	{titandash.SignalPlay, RegionActionPlay, IconPlay, ColorSuccess},
	{titandash.SignalPause, RegionActionPause, IconPause, ColorWarning},
	{titandash.SignalStop, RegionActionStop, IconStop, ColorDanger},
}

// Dispatcher binds the play/pause/stop controls to the instance state and sends the
// matching signal when an enabled control is activated. Sends are fire-and-forget.
type Dispatcher struct {
	ctx     context.Context
	surface Surface
	sender  SignalSender
	timeout time.Duration
	logger  zerolog.Logger

	bound titandash.State
	wg    sync.WaitGroup
	// run executes a send; tests swap in a synchronous runner
	run func(func())
}

// NewDispatcher creates a dispatcher whose sends live no longer than ctx
func NewDispatcher(ctx context.Context, surface Surface, sender SignalSender, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		ctx:     ctx,
		surface: surface,
		sender:  sender,
		timeout: timeout,
		logger:  logger.With().Str("component", "dispatcher").Logger(),
	}
	d.run = func(fn func()) {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			fn()
		}()
	}
	return d
}

// Bind enables and disables the controls for state. Unknown states leave the controls
// as they are; binding the same state twice is a no-op.
func (d *Dispatcher) Bind(state titandash.State) {
	table, ok := availability[state]
	if !ok {
		d.logger.Warn().Str("state", string(state)).Msg("Unknown instance state, controls unchanged")
		return
	}
	if d.bound == state {
		return
	}
	d.bound = state

	for i, c := range controls {
		if !table[i] {
			d.surface.SetControl(c.region, Control{Icon: c.icon, Color: ColorMuted})
			continue
		}
		signal := c.signal
		d.surface.SetControl(c.region, Control{
			Icon:       c.icon,
			Color:      c.color,
			Enabled:    true,
			OnActivate: func() { d.Send(signal) },
		})
	}
}

// Send dispatches signal and raises a confirmation notice. PLAY carries the currently
// selected configuration.
func (d *Dispatcher) Send(signal titandash.Signal) {
	config := ""
	if signal == titandash.SignalPlay {
		config = d.surface.SelectedConfig()
	}

	d.run(func() {
		ctx, cancel := context.WithTimeout(d.ctx, d.timeout)
		defer cancel()

		if err := d.sender.SendSignal(ctx, signal, config); err != nil {
			metrics.SignalsTotal.WithLabelValues(string(signal), "failure").Inc()
			metrics.ErrorsTotal.WithLabelValues("api").Inc()
			d.logger.Error().Err(err).Str("signal", string(signal)).Msg("Signal failed")
			return
		}
		metrics.SignalsTotal.WithLabelValues(string(signal), "success").Inc()
	})

	d.surface.Notify(fmt.Sprintf("%s SIGNAL HAS BEEN SUCCESSFULLY SENT...", signal))
}

// Wait blocks until in-flight sends finish
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
