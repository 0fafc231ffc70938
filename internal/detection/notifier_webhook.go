// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package detection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/authwatch/internal/logging"
	"github.com/tomtom215/authwatch/internal/metrics"
)

// ErrWebhookUnavailable is returned while the circuit breaker is open.
var ErrWebhookUnavailable = errors.New("webhook circuit open")

// WebhookConfig configures the webhook notifier.
type WebhookConfig struct {
	URL             string
	Headers         map[string]string
	Enabled         bool
	Timeout         time.Duration
	MinInterval     time.Duration // minimum spacing between deliveries
	BreakerFailures uint32        // consecutive failures that open the breaker
	BreakerTimeout  time.Duration // how long the breaker stays open
}

// WebhookPayload is the JSON body POSTed for each suspicious record.
type WebhookPayload struct {
	Detection *Record   `json:"detection"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// WebhookNotifier POSTs suspicious records to an HTTP endpoint through a
// circuit breaker so a dead endpoint is not hammered every pass.
type WebhookNotifier struct {
	url     string
	headers map[string]string
	enabled bool
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[struct{}]
	limiter *rate.Limiter // one delivery per MinInterval
}

// NewWebhookNotifier creates a webhook notifier from cfg.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	const name = "webhook-notifier"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	failures := cfg.BreakerFailures

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	return &WebhookNotifier{
		url:     cfg.URL,
		headers: headers,
		enabled: cfg.Enabled,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		cb: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     cfg.BreakerTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Circuit breaker state changed")
				metrics.RecordBreakerTransition(name, from.String(), to.String())
			},
		}),
	}
}

// Name implements Notifier.
func (n *WebhookNotifier) Name() string {
	return "webhook"
}

// Enabled implements Notifier.
func (n *WebhookNotifier) Enabled() bool {
	return n.enabled && n.url != ""
}

// State returns the circuit breaker state.
func (n *WebhookNotifier) State() gobreaker.State {
	return n.cb.State()
}

// Send implements Notifier.
func (n *WebhookNotifier) Send(ctx context.Context, record *Record) error {
	if !n.Enabled() {
		return nil
	}
	// Wait fails fast when ctx expires before the next slot.
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("webhook send spacing: %w", err)
	}

	body, err := json.Marshal(WebhookPayload{
		Detection: record,
		EventType: "suspicious_identity",
		Timestamp: time.Now().UTC(),
		Source:    "authwatch",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	_, err = n.cb.Execute(func() (struct{}, error) {
		return struct{}{}, n.post(ctx, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrWebhookUnavailable, err)
	}
	return err
}

func (n *WebhookNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range n.headers {
		req.Header.Set(k, v)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
