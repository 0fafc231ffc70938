// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package detection

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

// NATSConfig configures the NATS notifier.
type NATSConfig struct {
	URL     string
	Subject string
	Enabled bool
}

// NATSNotifier publishes suspicious records as JSON to a NATS subject.
type NATSNotifier struct {
	nc      *nats.Conn
	subject string
	enabled bool
}

// NewNATSNotifier connects to cfg.URL. The connection retries in the
// background if the server is not up yet.
func NewNATSNotifier(cfg NATSConfig) (*NATSNotifier, error) {
	if cfg.Subject == "" {
		return nil, fmt.Errorf("NATS subject is required")
	}
	nc, err := nats.Connect(cfg.URL,
		nats.Name("authwatch-detector"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSNotifier{nc: nc, subject: cfg.Subject, enabled: cfg.Enabled}, nil
}

// Name implements Notifier.
func (n *NATSNotifier) Name() string {
	return "nats"
}

// Enabled implements Notifier.
func (n *NATSNotifier) Enabled() bool {
	return n.enabled && !n.nc.IsClosed()
}

// Send implements Notifier. Delivery is at-most-once; Send returns once the
// server has acknowledged receipt of the publish via a flush.
func (n *NATSNotifier) Send(ctx context.Context, record *Record) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal detection: %w", err)
	}

	msg := nats.NewMsg(n.subject)
	msg.Data = body
	msg.Header.Set("Content-Type", "application/json")
	msg.Header.Set("Authwatch-Identity", record.Identity)

	if err := n.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish to %s: %w", n.subject, err)
	}
	if err := n.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush NATS connection: %w", err)
	}
	return nil
}

// Close drains pending publishes and closes the connection.
func (n *NATSNotifier) Close() error {
	return n.nc.Drain()
}
