// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcdev12/quizlive/go/internal/quiz"
)

type Config struct {
	Port     string
	LogLevel zerolog.Level

	HostIdleTimeout time.Duration
	EvictionGrace   time.Duration
	SweepInterval   time.Duration

	// Websocket
	SendBuffer     int
	MaxMessageSize int64
	PingInterval   time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// Lifecycle events go to JetStream when NATSURL is set and to the log
	// otherwise.
	NATSURL           string
	NATSStream        string
	NATSSubjectPrefix string

	DefaultsFile string
	Defaults     quiz.Options
}

// FromEnv builds a Config from environment variables, falling back to the
// defaults below. Unparseable numbers and durations fall back silently;
// an unknown log level or an unreadable defaults file is an error.
func FromEnv() (*Config, error) {
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: level,

		HostIdleTimeout: getEnvAsDuration("HOST_IDLE_TIMEOUT", 5*time.Minute),
		EvictionGrace:   getEnvAsDuration("EVICTION_GRACE", time.Minute),
		SweepInterval:   getEnvAsDuration("SWEEP_INTERVAL", time.Minute),

		SendBuffer:     getEnvAsInt("SEND_BUFFER", 256),
		MaxMessageSize: int64(getEnvAsInt("MAX_MESSAGE_SIZE", 8192)),
		PingInterval:   getEnvAsDuration("PING_INTERVAL", 30*time.Second),
		ReadTimeout:    getEnvAsDuration("READ_TIMEOUT", 60*time.Second),
		WriteTimeout:   getEnvAsDuration("WRITE_TIMEOUT", 10*time.Second),

		NATSURL:           getEnv("NATS_URL", ""),
		NATSStream:        getEnv("NATS_STREAM", "QUIZ_EVENTS"),
		NATSSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "quiz.events"),

		DefaultsFile: getEnv("DEFAULTS_FILE", ""),
	}

	if cfg.PingInterval >= cfg.ReadTimeout {
		return nil, fmt.Errorf("PING_INTERVAL (%s) must be shorter than READ_TIMEOUT (%s)", cfg.PingInterval, cfg.ReadTimeout)
	}

	if cfg.DefaultsFile != "" {
		opts, err := quiz.LoadOptions(cfg.DefaultsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load defaults file: %w", err)
		}
		cfg.Defaults = opts
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
