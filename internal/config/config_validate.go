// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/tomtom215/authwatch/internal/logging"
)

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateStore,
		c.validateLoops,
		c.validateNotify,
		c.validateRateLimits,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

func (c *Config) validateStore() error {
	caps := []struct {
		name  string
		value int
	}{
		{"MAX_EVENTS", c.Store.MaxEvents},
		{"MAX_HISTORY", c.Store.MaxHistory},
		{"MAX_DETECTIONS", c.Store.MaxDetections},
	}
	for _, cp := range caps {
		if cp.value < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", cp.name, cp.value)
		}
	}
	return nil
}

const minLoopInterval = 100 * time.Millisecond

func (c *Config) validateLoops() error {
	if c.Collector.Interval < minLoopInterval {
		return fmt.Errorf("COLLECTOR_INTERVAL must be at least %v", minLoopInterval)
	}
	if c.Detector.Interval < minLoopInterval {
		return fmt.Errorf("DETECTOR_INTERVAL must be at least %v", minLoopInterval)
	}
	return nil
}

func (c *Config) validateNotify() error {
	if c.Notify.Timeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive")
	}
	if wh := c.Notify.Webhook; wh.Enabled {
		u, err := url.Parse(wh.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("WEBHOOK_URL must be an absolute http(s) URL when the webhook is enabled")
		}
		if wh.BreakerFailures == 0 {
			return fmt.Errorf("WEBHOOK_BREAKER_FAILURES must be at least 1")
		}
		if wh.MinInterval >= c.Notify.Timeout {
			return fmt.Errorf("NOTIFY_TIMEOUT must exceed WEBHOOK_MIN_INTERVAL")
		}
	}
	if n := c.Notify.NATS; n.Enabled {
		if n.Subject == "" {
			return fmt.Errorf("NATS_SUBJECT is required when NATS is enabled")
		}
		if !n.Embedded && n.URL == "" {
			return fmt.Errorf("NATS_URL is required when NATS is enabled without the embedded server")
		}
		if n.Embedded && (n.Port < 1 || n.Port > 65535) {
			return fmt.Errorf("NATS_PORT must be between 1 and 65535")
		}
	}
	return nil
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic, disabled")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
