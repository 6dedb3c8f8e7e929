package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var envKeys = []string{
	"PORT", "LOG_LEVEL", "HOST_IDLE_TIMEOUT", "EVICTION_GRACE", "SWEEP_INTERVAL",
	"SEND_BUFFER", "MAX_MESSAGE_SIZE", "PING_INTERVAL", "READ_TIMEOUT", "WRITE_TIMEOUT",
	"NATS_URL", "NATS_STREAM", "NATS_SUBJECT_PREFIX", "DEFAULTS_FILE",
}

// clearEnv blanks every variable FromEnv reads; empty values count as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "8080" || cfg.LogLevel != zerolog.InfoLevel {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.HostIdleTimeout != 5*time.Minute || cfg.EvictionGrace != time.Minute || cfg.SendBuffer != 256 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.NATSURL != "" || cfg.NATSStream != "QUIZ_EVENTS" {
		t.Fatalf("unexpected NATS defaults %+v", cfg)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HOST_IDLE_TIMEOUT", "90s")
	t.Setenv("SEND_BUFFER", "32")
	t.Setenv("MAX_MESSAGE_SIZE", "not-a-number")
	t.Setenv("SWEEP_INTERVAL", "soon")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != "9000" || cfg.LogLevel != zerolog.DebugLevel {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.HostIdleTimeout != 90*time.Second || cfg.SendBuffer != 32 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.MaxMessageSize != 8192 || cfg.SweepInterval != time.Minute {
		t.Fatalf("bad values should fall back to defaults: %+v", cfg)
	}
}

func TestFromEnvErrors(t *testing.T) {
	clearEnv(t)
	t.Run("log level", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "loud")
		if _, err := FromEnv(); err == nil {
			t.Fatal("expected unknown log level to fail")
		}
	})
	t.Run("ping interval", func(t *testing.T) {
		t.Setenv("PING_INTERVAL", "2m")
		if _, err := FromEnv(); err == nil {
			t.Fatal("expected ping interval longer than read timeout to fail")
		}
	})
	t.Run("missing defaults file", func(t *testing.T) {
		t.Setenv("DEFAULTS_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
		if _, err := FromEnv(); err == nil {
			t.Fatal("expected missing defaults file to fail")
		}
	})
}

func TestDefaultsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	data := []byte("default_time_limit_ms: 15000\nallow_late_join: true\nmax_players: 40\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	clearEnv(t)
	t.Setenv("DEFAULTS_FILE", path)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Defaults.DefaultTimeLimitMs != 15000 || cfg.Defaults.MaxPlayers != 40 {
		t.Fatalf("defaults not loaded: %+v", cfg.Defaults)
	}
	if cfg.Defaults.AllowLateJoin == nil || !*cfg.Defaults.AllowLateJoin {
		t.Fatal("expected late join default")
	}
}
