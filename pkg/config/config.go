// Package config loads the server configuration from a TOML file and the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// System database backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Config is the server configuration.
type Config struct {
	ListenAddr      string
	DatabaseURL     string
	SystemBackend   string
	LogLevel        slog.Level
	AllowedOrigins  []string
	MaxConns        int32
	ConnMaxLifetime time.Duration
}

type fileConfig struct {
	ListenAddr      string   `toml:"listen_addr"`
	DatabaseURL     string   `toml:"database_url"`
	SystemBackend   string   `toml:"system_backend"`
	LogLevel        string   `toml:"log_level"`
	AllowedOrigins  []string `toml:"allowed_origins"`
	MaxConns        int32    `toml:"max_conns"`
	ConnMaxLifetime string   `toml:"conn_max_lifetime"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		ListenAddr:     ":8080",
		SystemBackend:  BackendMemory,
		LogLevel:       slog.LevelDebug,
		AllowedOrigins: []string{"http://localhost:3003"},
	}
}

// Load reads path, if not empty, over the defaults and then applies the
// DATABASE_URL, LISTEN_ADDR, LOG_LEVEL and SYSTEM_BACKEND environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		var raw fileConfig
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("load config: unknown keys %v", undecoded)
		}

		if meta.IsDefined("listen_addr") {
			cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
		}
		if meta.IsDefined("database_url") {
			cfg.DatabaseURL = strings.TrimSpace(raw.DatabaseURL)
		}
		if meta.IsDefined("system_backend") {
			cfg.SystemBackend = strings.TrimSpace(raw.SystemBackend)
		}
		if meta.IsDefined("log_level") {
			if err := cfg.LogLevel.UnmarshalText([]byte(raw.LogLevel)); err != nil {
				return Config{}, fmt.Errorf("parse log_level: %w", err)
			}
		}
		if meta.IsDefined("allowed_origins") {
			cfg.AllowedOrigins = raw.AllowedOrigins
		}
		if meta.IsDefined("max_conns") {
			cfg.MaxConns = raw.MaxConns
		}
		if meta.IsDefined("conn_max_lifetime") {
			d, err := time.ParseDuration(strings.TrimSpace(raw.ConnMaxLifetime))
			if err != nil {
				return Config{}, fmt.Errorf("parse conn_max_lifetime: %w", err)
			}
			cfg.ConnMaxLifetime = d
		}
	}

	if v, ok := os.LookupEnv("DATABASE_URL"); ok {
		cfg.DatabaseURL = v
	}
	if v, ok := os.LookupEnv("LISTEN_ADDR"); ok {
		cfg.ListenAddr = v
	}
	if v, ok := os.LookupEnv("SYSTEM_BACKEND"); ok {
		cfg.SystemBackend = v
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("parse LOG_LEVEL: %w", err)
		}
	}

	return cfg, cfg.Validate()
}

// Validate checks the settings that cannot be defaulted.
func (c Config) Validate() error {
	switch c.SystemBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("system_backend %q requires a database url", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown system_backend %q", c.SystemBackend)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is empty")
	}
	return nil
}
