package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yourusername/titandash-console/internal/config"
	"github.com/yourusername/titandash-console/internal/dashboard"
	"github.com/yourusername/titandash-console/internal/metrics"
	"github.com/yourusername/titandash-console/internal/timer"
	"github.com/yourusername/titandash-console/internal/titandash"
)

// API is the request/response side of the titandash server
type API interface {
	GetInstance(ctx context.Context) (*titandash.Snapshot, error)
	SendSignal(ctx context.Context, signal titandash.Signal, config string) error
}

// Stream delivers pushed snapshots in order. Updates is closed when Run returns.
type Stream interface {
	Run(ctx context.Context) error
	Updates() <-chan *titandash.Snapshot
	Connected() bool
}

// Controller feeds the initial instance state and every pushed snapshot, in order, to a
// single projector. Nothing else calls the projector, so it is never used concurrently.
type Controller struct {
	cfg     *config.Config
	api     API
	stream  Stream
	surface dashboard.Surface
	timers  dashboard.TimerFactory
	logger  zerolog.Logger
}

// NewController wires the titandash client and push socket to surface
func NewController(cfg *config.Config, surface dashboard.Surface, logger zerolog.Logger) (*Controller, error) {
	client := titandash.NewClient(cfg.ServerURL, cfg.RequestTimeout, logger)

	socketURL, err := client.SocketURL()
	if err != nil {
		return nil, fmt.Errorf("failed to derive push socket url: %w", err)
	}

	stream := titandash.NewSubscriber(titandash.SubscriberConfig{
		URL:          socketURL,
		ReadTimeout:  cfg.ReadTimeout,
		ReconnectMin: cfg.ReconnectMin,
		ReconnectMax: cfg.ReconnectMax,
	}, logger)

	timers := dashboard.LiveTimers{Options: []timer.Option{timer.WithInterval(cfg.TickInterval)}}

	return newController(cfg, client, stream, surface, timers, logger), nil
}

func newController(cfg *config.Config, api API, stream Stream, surface dashboard.Surface, timers dashboard.TimerFactory, logger zerolog.Logger) *Controller {
	return &Controller{
		cfg:     cfg,
		api:     api,
		stream:  stream,
		surface: surface,
		timers:  timers,
		logger:  logger.With().Str("component", "controller").Logger(),
	}
}

// Ready reports whether live updates are flowing
func (c *Controller) Ready() bool {
	return c.stream.Connected()
}

// Run blocks until ctx is cancelled. On return every timer has been destroyed and
// in-flight signal sends have finished.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info().
		Str("server", c.cfg.ServerURL).
		Dur("grace_period", c.cfg.GracePeriod).
		Msg("Starting dashboard controller")

	dispatcher := dashboard.NewDispatcher(ctx, c.surface, c.api, c.cfg.RequestTimeout, c.logger)
	projector := dashboard.NewProjector(c.surface, dispatcher,
		dashboard.WithTimers(c.timers),
		dashboard.WithLogger(c.logger),
	)
	defer func() {
		projector.Dispose()
		dispatcher.Wait()
		c.logger.Info().Msg("Dashboard controller stopped")
	}()

	// Give the server a moment before the first request
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.cfg.GracePeriod):
	}

	c.initialSync(ctx, projector)

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.stream.Run(ctx)
	}()

	for snapshot := range c.stream.Updates() {
		if snapshot == nil {
			continue
		}
		c.apply(projector, snapshot, "socket")
	}

	err := <-errCh
	if errors.Is(err, context.Canceled) {
		return ctx.Err()
	}
	return err
}

// initialSync fetches and applies the current instance. A failure leaves the screen in
// its loading state; the push socket is opened either way.
func (c *Controller) initialSync(ctx context.Context, projector *dashboard.Projector) {
	start := time.Now()
	defer projector.Loaded()

	snapshot, err := c.api.GetInstance(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Initial instance fetch failed")
		metrics.ErrorsTotal.WithLabelValues("api").Inc()
		metrics.HealthStatus.Set(0)
		return
	}

	c.apply(projector, snapshot, "initial")
	metrics.HealthStatus.Set(1)
	c.logger.Info().
		Str("state", string(snapshot.State)).
		Dur("duration", time.Since(start)).
		Msg("Initial instance state applied")
}

func (c *Controller) apply(projector *dashboard.Projector, snapshot *titandash.Snapshot, source string) {
	projector.Apply(snapshot)
	metrics.SnapshotsAppliedTotal.WithLabelValues(source).Inc()
	metrics.LastSnapshotTimestamp.SetToCurrentTime()
}
