// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the tidings client.
//
// Configuration is read from TOML with sensible defaults and environment
// variable overrides, in order of precedence:
//
//   - environment variables (TIDINGS_*)
//   - ~/.tidings/config.toml
//   - built-in defaults
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variable overrides.
const (
	EnvServerURL = "TIDINGS_SERVER_URL"
	EnvTokenFile = "TIDINGS_TOKEN_FILE"
	EnvLogFile   = "TIDINGS_LOG_FILE"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete tidings configuration.
type Config struct {
	// Server settings
	Server ServerConfig `toml:"server"`

	// Auth settings
	Auth AuthConfig `toml:"auth"`

	// Push channel settings
	Push PushConfig `toml:"push"`

	// Log settings
	Log LogConfig `toml:"log"`
}

// ServerConfig describes how to reach the chat server.
type ServerConfig struct {
	// URL is the base URL of the REST API, e.g. "http://localhost:5000".
	URL string `toml:"url"`
	// WebsocketURL overrides the push channel endpoint. Empty means derive
	// it from URL by swapping the scheme (http→ws, https→wss).
	WebsocketURL string `toml:"websocket_url"`
	// TimeoutSecs is the per-request timeout for REST calls.
	TimeoutSecs int `toml:"timeout_secs"`
}

// AuthConfig describes where the session token is persisted.
type AuthConfig struct {
	// TokenFile is the path of the persisted bearer token. Absence of the
	// file means unauthenticated at startup.
	TokenFile string `toml:"token_file"`
}

// PushConfig controls the push channel's reconnect behavior.
type PushConfig struct {
	// Reconnect enables automatic reconnect with backoff after a dropped
	// connection. A token change always reconnects regardless.
	Reconnect bool `toml:"reconnect"`
	// MaxBackoffSecs caps the exponential reconnect delay.
	MaxBackoffSecs int `toml:"max_backoff_secs"`
}

// LogConfig controls diagnostics logging. The TUI owns the terminal, so logs
// always go to a file.
type LogConfig struct {
	// File is the log file path. Empty means ~/.tidings/tidings.log.
	File string `toml:"file"`
	// Level is one of "debug", "info", "warn", "error".
	Level string `toml:"level"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in default configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			URL:         "http://localhost:5000",
			TimeoutSecs: 15,
		},
		Auth: AuthConfig{
			TokenFile: filepath.Join(baseDir(), "token"),
		},
		Push: PushConfig{
			Reconnect:      true,
			MaxBackoffSecs: 30,
		},
		Log: LogConfig{
			File:  filepath.Join(baseDir(), "tidings.log"),
			Level: "info",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(baseDir(), "config.toml")
}

// baseDir returns ~/.tidings, falling back to the working directory when the
// home directory cannot be resolved.
func baseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tidings"
	}
	return filepath.Join(home, ".tidings")
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration from path. A missing file is not an error: the
// defaults apply. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// No file, defaults only.
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv applies TIDINGS_* environment overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvServerURL); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv(EnvTokenFile); v != "" {
		c.Auth.TokenFile = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Log.File = v
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.url %q is not a valid URL", c.Server.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.url scheme must be http or https, got %q", u.Scheme)
	}
	if c.Server.TimeoutSecs <= 0 {
		return errors.New("server.timeout_secs must be positive")
	}
	if c.Push.MaxBackoffSecs <= 0 {
		return errors.New("push.max_backoff_secs must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// RequestTimeout returns the REST request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSecs) * time.Second
}

// MaxBackoff returns the reconnect backoff cap as a duration.
func (c *Config) MaxBackoff() time.Duration {
	return time.Duration(c.Push.MaxBackoffSecs) * time.Second
}

// WebsocketURL resolves the push channel endpoint: the explicit override if
// set, else the server URL with the scheme swapped to ws/wss and the /ws path.
func (c *Config) WebsocketURL() string {
	if c.Server.WebsocketURL != "" {
		return c.Server.WebsocketURL
	}
	out := c.Server.URL
	switch {
	case strings.HasPrefix(out, "https://"):
		out = "wss://" + strings.TrimPrefix(out, "https://")
	case strings.HasPrefix(out, "http://"):
		out = "ws://" + strings.TrimPrefix(out, "http://")
	}
	return strings.TrimSuffix(out, "/") + "/ws"
}
