// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/authwatch/internal/broker"
	"github.com/tomtom215/authwatch/internal/logging"
)

// BrokerService runs the embedded NATS server. Notifiers connect with
// retry, so they tolerate the broker coming up after them or restarting.
type BrokerService struct {
	config          broker.Config
	shutdownTimeout time.Duration
	name            string
}

// NewBrokerService creates a service for an embedded server with cfg.
func NewBrokerService(cfg broker.Config, shutdownTimeout time.Duration) *BrokerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &BrokerService{
		config:          cfg,
		shutdownTimeout: shutdownTimeout,
		name:            "nats-broker",
	}
}

// Serve implements suture.Service. A failed start is returned so suture
// retries with backoff.
func (b *BrokerService) Serve(ctx context.Context) error {
	logger := logging.WithComponent(b.name)
	srv, err := broker.Start(b.config)
	if err != nil {
		return fmt.Errorf("embedded NATS start failed: %w", err)
	}
	logger.Info().Str("url", srv.ClientURL()).Msg("Embedded NATS server started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), b.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Embedded NATS server did not stop in time")
	}
	return ctx.Err()
}

// String implements fmt.Stringer; suture uses it in log messages.
func (b *BrokerService) String() string {
	return b.name
}
