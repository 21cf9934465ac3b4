package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SnapshotsAppliedTotal tracks snapshots handed to the projector
	SnapshotsAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "titandash_console_snapshots_applied_total",
			Help: "Total number of instance snapshots applied to the dashboard",
		},
		[]string{"source"}, // initial, socket
	)

	// SnapshotsDroppedTotal tracks push messages that could not be decoded
	SnapshotsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "titandash_console_snapshots_dropped_total",
			Help: "Total number of push messages skipped because they could not be decoded",
		},
	)

	// ApplyDuration tracks how long one projection pass takes
	ApplyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "titandash_console_apply_duration_seconds",
			Help:    "Duration of a single snapshot projection",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)

	// SignalsTotal tracks control signals sent to the server
	SignalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "titandash_console_signals_total",
			Help: "Total number of control signals sent",
		},
		[]string{"signal", "status"}, // PLAY/PAUSE/STOP, success/failure
	)

	// TimersCreatedTotal tracks stopwatch and countdown creation
	TimersCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "titandash_console_timers_created_total",
			Help: "Total number of timer widgets created",
		},
		[]string{"kind"}, // stopwatch, countdown
	)

	// TimersDestroyedTotal tracks stopwatch and countdown teardown
	TimersDestroyedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "titandash_console_timers_destroyed_total",
			Help: "Total number of timer widgets destroyed",
		},
		[]string{"kind"},
	)

	// APIRequestDuration tracks titandash API request duration
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "titandash_console_api_request_duration_seconds",
			Help:    "Duration of titandash API requests",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	// APIErrorsTotal tracks API errors
	APIErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "titandash_console_api_errors_total",
			Help: "Total number of titandash API errors",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	// SocketConnected reports whether the push socket is currently open
	SocketConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "titandash_console_socket_connected",
			Help: "Push socket connection state (1 = connected, 0 = disconnected)",
		},
	)

	// SocketReconnectsTotal tracks reconnect attempts after the socket closed
	SocketReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "titandash_console_socket_reconnects_total",
			Help: "Total number of push socket reconnect attempts",
		},
	)

	// LastSnapshotTimestamp tracks the last applied snapshot
	LastSnapshotTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "titandash_console_last_snapshot_timestamp_seconds",
			Help: "Timestamp of the last applied snapshot",
		},
	)

	// HealthStatus tracks overall health
	HealthStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "titandash_console_healthy",
			Help: "Health status of the dashboard console (1 = healthy, 0 = unhealthy)",
		},
	)

	// ErrorsTotal tracks errors by type
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "titandash_console_errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"}, // network, decode, api, render
	)
)

func init() {
	// Initialize health as healthy
	HealthStatus.Set(1)
}
