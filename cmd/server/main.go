// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/authwatch/internal/api"
	"github.com/tomtom215/authwatch/internal/broker"
	"github.com/tomtom215/authwatch/internal/config"
	"github.com/tomtom215/authwatch/internal/detection"
	"github.com/tomtom215/authwatch/internal/logging"
	"github.com/tomtom215/authwatch/internal/pipeline"
	"github.com/tomtom215/authwatch/internal/supervisor"
	"github.com/tomtom215/authwatch/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Int("max_events", cfg.Store.MaxEvents).
		Dur("collector_interval", cfg.Collector.Interval).
		Dur("detector_interval", cfg.Detector.Interval).
		Msg("Starting Authwatch with supervisor tree")

	logger := logging.Logger()
	svc := pipeline.New(pipeline.Config{
		MaxEvents:         cfg.Store.MaxEvents,
		MaxHistory:        cfg.Store.MaxHistory,
		MaxDetections:     cfg.Store.MaxDetections,
		CollectorInterval: cfg.Collector.Interval,
		DetectorInterval:  cfg.Detector.Interval,
		NotifyTimeout:     cfg.Notify.Timeout,
	}, &logger)

	if cfg.Notify.Webhook.Enabled {
		svc.AddNotifier(detection.NewWebhookNotifier(detection.WebhookConfig{
			URL:             cfg.Notify.Webhook.URL,
			Headers:         cfg.Notify.Webhook.Headers,
			Enabled:         true,
			Timeout:         cfg.Notify.Webhook.Timeout,
			MinInterval:     cfg.Notify.Webhook.MinInterval,
			BreakerFailures: cfg.Notify.Webhook.BreakerFailures,
			BreakerTimeout:  cfg.Notify.Webhook.BreakerTimeout,
		}))
		logging.Info().Str("url", cfg.Notify.Webhook.URL).Msg("Webhook notifier enabled")
	}

	var natsNotifier *detection.NATSNotifier
	if cfg.Notify.NATS.Enabled {
		url := cfg.Notify.NATS.URL
		if cfg.Notify.NATS.Embedded {
			url = fmt.Sprintf("nats://127.0.0.1:%d", cfg.Notify.NATS.Port)
		}
		natsNotifier, err = detection.NewNATSNotifier(detection.NATSConfig{
			URL:     url,
			Subject: cfg.Notify.NATS.Subject,
			Enabled: true,
		})
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create NATS notifier")
		}
		svc.AddNotifier(natsNotifier)
		logging.Info().
			Str("url", url).
			Str("subject", cfg.Notify.NATS.Subject).
			Bool("embedded", cfg.Notify.NATS.Embedded).
			Msg("NATS notifier enabled")
	}

	mw := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		CORSAllowedMethods: api.DefaultChiMiddlewareConfig().CORSAllowedMethods,
		CORSAllowedHeaders: api.DefaultChiMiddlewareConfig().CORSAllowedHeaders,
		CORSMaxAge:         api.DefaultChiMiddlewareConfig().CORSMaxAge,
		RateLimitRequests:  cfg.Security.RateLimitReqs,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
		RateLimitDisabled:  cfg.Security.RateLimitDisabled,
	})
	router := api.NewRouter(api.NewHandler(svc), mw)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if cfg.Notify.NATS.Enabled && cfg.Notify.NATS.Embedded {
		tree.AddMessagingService(services.NewBrokerService(
			broker.Config{Port: cfg.Notify.NATS.Port},
			cfg.Server.ShutdownTimeout,
		))
	}
	tree.AddPipelineService(services.NewPipelineService(svc, cfg.Collector.AutoStart, cfg.Detector.AutoStart))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, u := range unstopped {
		logging.Warn().Str("service", u.Name).Msg("Service failed to stop within timeout")
	}

	svc.Close()
	if natsNotifier != nil {
		if err := natsNotifier.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close NATS notifier")
		}
	}

	logging.Info().Msg("Authwatch stopped")
}
