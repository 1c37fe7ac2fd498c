package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kode4food/pilot/pkg/api"
)

type (
	// Config holds configuration settings for the flow runner
	Config struct {
		// API Server
		APIHost     string
		APIPort     int
		LogLevel    string
		Environment string
		Version     string

		// Declarative sources
		ConfigURL string
		TasksFile string

		// Run defaults
		DefaultFlow      api.FlowName
		DefaultNamespace string
		DefaultAppName   string

		// Tasks
		TaskTimeout     int64
		ShutdownTimeout time.Duration
	}
)

const (
	DefaultAPIPort         = 8000
	DefaultAPIHost         = "0.0.0.0"
	DefaultConfigURL       = "file:///etc/pilot/config"
	DefaultTasksFile       = "tasks.yaml"
	DefaultFlow            = "k8s-healthcheck"
	DefaultNamespace       = "default"
	DefaultAppName         = "chat-api"
	DefaultEnvironment     = "development"
	DefaultVersion         = "0.1.0"
	DefaultTaskTimeout     = 20_000
	DefaultShutdownTimeout = 10 * time.Second

	MaxTCPPort     = 65535
	MaxTaskTimeout = 60 * 60 * 1000 // 1 hour in ms
)

var (
	ErrInvalidAPIPort     = errors.New("invalid API port")
	ErrInvalidTaskTimeout = errors.New("task timeout must be positive")
	ErrConfigURLRequired  = errors.New("config URL is required")
	ErrInvalidDefaultFlow = errors.New("invalid default flow name")
)

// NewDefaultConfig creates a configuration with sensible defaults for the
// API server, catalog location, and run inputs
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:          DefaultAPIHost,
		APIPort:          DefaultAPIPort,
		LogLevel:         "info",
		Environment:      DefaultEnvironment,
		Version:          DefaultVersion,
		ConfigURL:        DefaultConfigURL,
		TasksFile:        DefaultTasksFile,
		DefaultFlow:      DefaultFlow,
		DefaultNamespace: DefaultNamespace,
		DefaultAppName:   DefaultAppName,
		TaskTimeout:      DefaultTaskTimeout,
		ShutdownTimeout:  DefaultShutdownTimeout,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	loadEnvString("API_HOST", &c.APIHost)
	loadEnvString("LOG_LEVEL", &c.LogLevel)
	loadEnvString("ENVIRONMENT", &c.Environment)
	loadEnvString("APP_VERSION", &c.Version)
	loadEnvString("CONFIG_URL", &c.ConfigURL)
	loadEnvString("TASKS_FILE", &c.TasksFile)
	loadEnvString("DEFAULT_FLOW", &c.DefaultFlow)
	loadEnvString("DEFAULT_NAMESPACE", &c.DefaultNamespace)
	loadEnvString("DEFAULT_APP_NAME", &c.DefaultAppName)

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt(
		"TASK_TIMEOUT", &c.TaskTimeout, 0, MaxTaskTimeout,
	); err != nil {
		return err
	}

	if s := os.Getenv("SHUTDOWN_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %q", s)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}

	if c.TaskTimeout <= 0 {
		return ErrInvalidTaskTimeout
	}

	if c.ConfigURL == "" {
		return ErrConfigURLRequired
	}

	if !c.DefaultFlow.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidDefaultFlow, c.DefaultFlow)
	}

	return nil
}

// TaskTimeoutDuration returns the task timeout as a time.Duration
func (c *Config) TaskTimeoutDuration() time.Duration {
	return time.Duration(c.TaskTimeout) * time.Millisecond
}

// Addr returns the host:port the API server listens on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}

func loadEnvString[T ~string](key string, dst *T) {
	if s := os.Getenv(key); s != "" {
		*dst = T(s)
	}
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max]. Returns an error if
// the value cannot be parsed or falls outside the valid range
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}
