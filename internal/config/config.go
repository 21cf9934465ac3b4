package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Config holds the application configuration
type Config struct {
	// titandash server
	ServerURL      string        `validate:"required,url"`
	RequestTimeout time.Duration `validate:"gt=0"`

	// Push socket
	ReadTimeout  time.Duration `validate:"gt=0"`
	ReconnectMin time.Duration `validate:"gt=0"`
	ReconnectMax time.Duration `validate:"gtefield=ReconnectMin"`

	// Dashboard behaviour
	GracePeriod  time.Duration `validate:"gte=0"` // delay before the initial fetch
	TickInterval time.Duration `validate:"gt=0"`
	NoticeTTL    time.Duration `validate:"gt=0"`
	TargetFPS    int           `validate:"gte=1,lte=120"`
	Headless     bool

	// Options offered by the configuration selector, sent with PLAY
	Configurations []Configuration `validate:"dive"`

	// Observability
	LogLevel    string `validate:"oneof=trace debug info warn error fatal panic disabled"`
	MetricsPort int    `validate:"gte=0,lte=65535"`
	HealthPort  int    `validate:"gte=0,lte=65535"`
}

// Configuration is one selectable bot configuration
type Configuration struct {
	ID   string `validate:"required"`
	Name string `validate:"required"`
}

// LoadFromEnv loads configuration from environment variables. A .env file in the
// working directory, when present, is loaded first without overriding the environment.
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		ServerURL:      getEnvOrDefault("TITANDASH_URL", "http://localhost:8000"),
		RequestTimeout: parseDuration(os.Getenv("REQUEST_TIMEOUT"), 10*time.Second),
		ReadTimeout:    parseDuration(os.Getenv("READ_TIMEOUT"), 90*time.Second),
		ReconnectMin:   parseDuration(os.Getenv("RECONNECT_MIN"), time.Second),
		ReconnectMax:   parseDuration(os.Getenv("RECONNECT_MAX"), 30*time.Second),
		GracePeriod:    parseDuration(os.Getenv("GRACE_PERIOD"), 400*time.Millisecond),
		TickInterval:   parseDuration(os.Getenv("TICK_INTERVAL"), time.Second),
		NoticeTTL:      parseDuration(os.Getenv("NOTICE_TTL"), 4*time.Second),
		TargetFPS:      parseInt(os.Getenv("UI_FPS"), 30),
		Headless:       os.Getenv("HEADLESS") == "true",
		Configurations: parseConfigurations(os.Getenv("CONFIGURATIONS")),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		MetricsPort:    parsePort(os.Getenv("METRICS_PORT"), 9090),
		HealthPort:     parsePort(os.Getenv("HEALTH_PORT"), 8080),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}
	var result int
	fmt.Sscanf(value, "%d", &result)
	if result == 0 {
		return defaultValue
	}
	return result
}

// parsePort is like parseInt but keeps an explicit 0, which disables the listener
func parsePort(value string, defaultValue int) int {
	if value == "0" {
		return 0
	}
	return parseInt(value, defaultValue)
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// parseConfigurations reads "id:name" pairs separated by commas. An entry without a
// colon uses the same value for both.
func parseConfigurations(value string) []Configuration {
	var configs []Configuration
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, name, found := strings.Cut(entry, ":")
		if !found {
			name = id
		}
		configs = append(configs, Configuration{
			ID:   strings.TrimSpace(id),
			Name: strings.TrimSpace(name),
		})
	}
	return configs
}
