// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

// Package config loads Authwatch configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("invalid configuration")
//	}
//
// Environment variables use flat legacy-style names (HTTP_PORT,
// COLLECTOR_INTERVAL, WEBHOOK_URL...) mapped explicitly to nested keys; any
// variable not in the mapping table is ignored.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig   `koanf:"server"`
	Store     StoreConfig    `koanf:"store"`
	Collector LoopConfig     `koanf:"collector"`
	Detector  LoopConfig     `koanf:"detector"`
	Notify    NotifyConfig   `koanf:"notify"`
	Security  SecurityConfig `koanf:"security"`
	Logging   LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StoreConfig holds the in-memory retention caps.
type StoreConfig struct {
	MaxEvents     int `koanf:"max_events"`
	MaxHistory    int `koanf:"max_history"`
	MaxDetections int `koanf:"max_detections"`
}

// LoopConfig configures one periodic background loop.
type LoopConfig struct {
	Interval  time.Duration `koanf:"interval"`
	AutoStart bool          `koanf:"auto_start"`
}

// NotifyConfig configures delivery of suspicious-identity alerts.
type NotifyConfig struct {
	// Timeout bounds one delivery to one notifier, including any wait for
	// the webhook's send spacing.
	Timeout time.Duration `koanf:"timeout"`
	Webhook WebhookConfig `koanf:"webhook"`
	NATS    NATSConfig    `koanf:"nats"`
}

// WebhookConfig configures the HTTP webhook notifier.
type WebhookConfig struct {
	Enabled         bool              `koanf:"enabled"`
	URL             string            `koanf:"url"`
	Headers         map[string]string `koanf:"headers"`
	Timeout         time.Duration     `koanf:"timeout"`
	MinInterval     time.Duration     `koanf:"min_interval"`
	BreakerFailures uint32            `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration     `koanf:"breaker_timeout"`
}

// NATSConfig configures the NATS notifier. With Embedded set, the process
// runs its own NATS server and publishes to it.
type NATSConfig struct {
	Enabled  bool   `koanf:"enabled"`
	URL      string `koanf:"url"`
	Subject  string `koanf:"subject"`
	Embedded bool   `koanf:"embedded"`
	Port     int    `koanf:"port"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
