package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/yourusername/titandash-console/internal/config"
	"github.com/yourusername/titandash-console/internal/controller"
	"github.com/yourusername/titandash-console/internal/dashboard"
	"github.com/yourusername/titandash-console/internal/metrics"
	"github.com/yourusername/titandash-console/internal/tui"
)

var (
	// Version information (set via -ldflags)
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"

	// CLI flags
	logLevel  string
	headless  bool
	serverURL string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "titandash-console",
		Short: "Terminal dashboard for a titandash bot instance",
		Long: `titandash-console follows a titandash bot instance over its push socket,
renders the instance state in the terminal and sends start, pause and stop signals.`,
		RunE: run,
	}

	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error), overrides LOG_LEVEL")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "Log dashboard changes instead of drawing them (overrides HEADLESS)")
	rootCmd.Flags().StringVar(&serverURL, "server", "", "titandash server URL (overrides TITANDASH_URL)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("titandash-console %s\n", version)
			fmt.Printf("  git commit: %s\n", gitCommit)
			fmt.Printf("  build date: %s\n", buildDate)
		},
	}

	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fatalLogger := setupLogging("info", os.Stdout)
		fatalLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// CLI flags override the environment
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("headless") {
		cfg.Headless = headless
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if err := cfg.Validate(); err != nil {
		fatalLogger := setupLogging("info", os.Stdout)
		fatalLogger.Fatal().Err(err).Msg("Invalid command line overrides")
	}

	configs := lo.Map(cfg.Configurations, func(c config.Configuration, _ int) tui.ConfigOption {
		return tui.ConfigOption{ID: c.ID, Name: c.Name}
	})

	// The terminal UI owns stdout, so logs go to its log pane
	var surface dashboard.Surface
	var dash *tui.Dashboard
	logger := setupLogging(cfg.LogLevel, os.Stdout)
	if cfg.Headless {
		surface = tui.NewHeadless(logger, configs)
	} else {
		dash = tui.New(tui.Options{
			Server:         cfg.ServerURL,
			TargetFPS:      cfg.TargetFPS,
			NoticeTTL:      cfg.NoticeTTL,
			Configurations: configs,
		})
		surface = dash
		logger = setupLogging(cfg.LogLevel, zerolog.ConsoleWriter{
			Out:        dash.LogWriter(),
			NoColor:    true,
			TimeFormat: time.TimeOnly,
		})
	}

	logger.Info().
		Str("version", version).
		Str("git_commit", gitCommit).
		Str("build_date", buildDate).
		Msg("Starting titandash-console")

	logger.Info().
		Str("server", cfg.ServerURL).
		Bool("headless", cfg.Headless).
		Dur("grace_period", cfg.GracePeriod).
		Dur("reconnect_max", cfg.ReconnectMax).
		Int("configurations", len(configs)).
		Msg("Configuration loaded")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	ctrl, err := controller.NewController(cfg, surface, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create controller")
	}

	// Start metrics server
	if cfg.MetricsPort > 0 {
		metricsServer := startMetricsServer(cfg.MetricsPort, logger)
		defer shutdownServer(metricsServer, "Metrics", logger)
	}

	// Start health server
	if cfg.HealthPort > 0 {
		healthServer := startHealthServer(cfg.HealthPort, ctrl.Ready, logger)
		defer shutdownServer(healthServer, "Health", logger)
	}

	if dash == nil {
		return runController(ctx, ctrl, logger)
	}

	ctrlDone := make(chan error, 1)
	go func() {
		ctrlDone <- runController(ctx, ctrl, logger)
	}()

	if err := dash.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Terminal UI error")
	}
	cancel()
	err = <-ctrlDone

	// The log pane is gone
	logger = setupLogging(cfg.LogLevel, os.Stdout)
	logger.Info().Msg("Shutdown complete")
	return err
}

func runController(ctx context.Context, ctrl *controller.Controller, logger zerolog.Logger) error {
	if err := ctrl.Run(ctx); err != nil && err != context.Canceled {
		logger.Error().Err(err).Msg("Controller error")
		metrics.HealthStatus.Set(0)
		return err
	}
	logger.Info().Msg("Controller finished")
	return nil
}

// setupLogging configures structured logging to out
func setupLogging(level string, out io.Writer) zerolog.Logger {
	// Parse log level
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)
	zerolog.TimeFieldFormat = time.RFC3339

	logger := zerolog.New(out).With().
		Timestamp().
		Str("service", "titandash-console").
		Logger()
	log.Logger = logger

	return logger
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(port int, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", port).Msg("Starting metrics server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("Metrics server error")
		}
	}()

	return server
}

// startHealthServer starts the health check HTTP server
func startHealthServer(port int, ready func() bool, logger zerolog.Logger) *http.Server {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      healthHandler(ready),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", port).Msg("Starting health server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("Health server error")
		}
	}()

	return server
}

func healthHandler(ready func() bool) http.Handler {
	mux := http.NewServeMux()

	// Liveness probe - always returns 200 if server is running
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Readiness probe - ready once the push socket is connected
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("push socket not connected"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	return mux
}

func shutdownServer(server *http.Server, name string, logger zerolog.Logger) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Str("server", name).Msg("Server shutdown error")
	}
}
