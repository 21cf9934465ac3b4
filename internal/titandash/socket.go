package titandash

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/yourusername/titandash-console/internal/metrics"
)

const (
	// Time allowed to write a ping to the server
	writeWait = 10 * time.Second

	// Maximum push message size accepted from the server
	maxMessageSize = 1 << 20
)

// SubscriberConfig configures the push socket subscriber
type SubscriberConfig struct {
	URL          string
	ReadTimeout  time.Duration
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// Subscriber follows the instance push socket and delivers snapshots in receive order.
// A closed socket is redialed with capped exponential backoff until the context ends.
type Subscriber struct {
	cfg     SubscriberConfig
	dialer  *websocket.Dialer
	logger  zerolog.Logger
	updates chan *Snapshot

	connected atomic.Bool
}

// NewSubscriber creates a subscriber; call Run to start it
func NewSubscriber(cfg SubscriberConfig, logger zerolog.Logger) *Subscriber {
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 90 * time.Second
	}
	return &Subscriber{
		cfg:     cfg,
		dialer:  websocket.DefaultDialer,
		logger:  logger.With().Str("component", "push-socket").Str("url", cfg.URL).Logger(),
		updates: make(chan *Snapshot, 16),
	}
}

// Updates returns the snapshot stream. It is closed when Run returns.
func (s *Subscriber) Updates() <-chan *Snapshot {
	return s.updates
}

// Connected reports whether the socket is currently open
func (s *Subscriber) Connected() bool {
	return s.connected.Load()
}

// Run dials and reads until ctx is cancelled
func (s *Subscriber) Run(ctx context.Context) error {
	defer close(s.updates)

	b := newBackoff(s.cfg.ReconnectMin, s.cfg.ReconnectMax)
	for {
		err := s.session(ctx, b)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := b.Next()
		s.logger.Warn().Err(err).Dur("retry_in", delay).Msg("Push socket closed, reconnecting")
		metrics.SocketReconnectsTotal.Inc()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// session runs one connection from dial to close
func (s *Subscriber) session(ctx context.Context, b *backoff) error {
	conn, _, err := s.dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		metrics.ErrorsTotal.WithLabelValues("network").Inc()
		return fmt.Errorf("dial push socket: %w", err)
	}

	s.setConnected(true)
	b.Reset()
	s.logger.Info().Msg("Push socket connected")

	done := make(chan struct{})
	defer func() {
		close(done)
		conn.Close()
		s.setConnected(false)
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	go s.keepalive(ctx, conn, done)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read push socket: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		if messageType != websocket.TextMessage {
			continue
		}

		snapshot, err := DecodePush(data)
		if err != nil {
			metrics.SnapshotsDroppedTotal.Inc()
			metrics.ErrorsTotal.WithLabelValues("decode").Inc()
			s.logger.Warn().Err(err).Int("bytes", len(data)).Msg("Skipping undecodable push message")
			continue
		}

		select {
		case s.updates <- snapshot:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// keepalive pings the server and closes the connection when ctx ends
func (s *Subscriber) keepalive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.ReadTimeout * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.logger.Debug().Err(err).Msg("Ping failed")
				conn.Close()
				return
			}
		}
	}
}

func (s *Subscriber) setConnected(v bool) {
	s.connected.Store(v)
	if v {
		metrics.SocketConnected.Set(1)
	} else {
		metrics.SocketConnected.Set(0)
	}
}

// DecodePush extracts the snapshot from a push message
func DecodePush(data []byte) (*Snapshot, error) {
	var envelope PushEnvelope
	if err := codec.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode push message: %w", err)
	}
	if envelope.Instance.Instance == nil {
		return nil, errors.New("push message has no instance")
	}
	return envelope.Instance.Instance, nil
}
