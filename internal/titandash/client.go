package titandash

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/yourusername/titandash-console/internal/metrics"
)

const (
	instanceEndpoint = "/ajax/bot_instance/get"
	signalEndpoint   = "/ajax/signal"
	socketEndpoint   = "/ws/instance/"
)

// ErrUnexpectedStatus is returned when the server answers with a non-200 status
var ErrUnexpectedStatus = errors.New("unexpected status")

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Client represents a titandash dashboard API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new titandash API client
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "titandash-client").Logger(),
	}
}

// GetInstance fetches the current bot instance snapshot
func (c *Client) GetInstance(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	defer func() {
		metrics.APIRequestDuration.WithLabelValues("GET", instanceEndpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+instanceEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build instance request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.APIErrorsTotal.WithLabelValues("GET", instanceEndpoint, "network_error").Inc()
		c.logger.Error().Err(err).Msg("Failed to fetch bot instance")
		return nil, fmt.Errorf("instance request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.APIErrorsTotal.WithLabelValues("GET", instanceEndpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		return nil, fmt.Errorf("instance request: %w %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var snapshot Snapshot
	if err := codec.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode instance: %w", err)
	}

	c.logger.Debug().
		Str("state", string(snapshot.State)).
		Str("session", snapshot.Session.UUID).
		Msg("Fetched bot instance")

	return &snapshot, nil
}

// SendSignal sends a control signal. The configuration id is only attached to PLAY.
func (c *Client) SendSignal(ctx context.Context, signal Signal, config string) error {
	start := time.Now()
	defer func() {
		metrics.APIRequestDuration.WithLabelValues("GET", signalEndpoint).Observe(time.Since(start).Seconds())
	}()

	query := url.Values{}
	query.Set("signal", string(signal))
	if signal == SignalPlay && config != "" {
		query.Set("config", config)
	}

	requestID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+signalEndpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build signal request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.APIErrorsTotal.WithLabelValues("GET", signalEndpoint, "network_error").Inc()
		c.logger.Error().Err(err).
			Str("signal", string(signal)).
			Str("request_id", requestID).
			Msg("Failed to send signal")
		return fmt.Errorf("signal request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		metrics.APIErrorsTotal.WithLabelValues("GET", signalEndpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()
		return fmt.Errorf("signal %s: %w %d: %s", signal, ErrUnexpectedStatus, resp.StatusCode, string(body))
	}

	c.logger.Info().
		Str("signal", string(signal)).
		Str("config", query.Get("config")).
		Str("request_id", requestID).
		Msg("Signal sent")

	return nil
}

// SocketURL derives the push socket URL from the base URL
func (c *Client) SocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + socketEndpoint
	u.RawQuery = ""
	return u.String(), nil
}
