// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestGenerateIDs(t *testing.T) {
	t.Parallel()

	if id := generateCorrelationID(); len(id) != 8 {
		t.Errorf("generateCorrelationID() length = %d, want 8", len(id))
	}
	a, b := GenerateRequestID(), GenerateRequestID()
	if len(a) != 36 {
		t.Errorf("GenerateRequestID() length = %d, want 36", len(a))
	}
	if a == b {
		t.Error("expected unique request IDs")
	}
}

func TestContextIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if CorrelationIDFromContext(ctx) != "" || RequestIDFromContext(ctx) != "" {
		t.Fatal("expected empty IDs on background context")
	}

	ctx = contextWithCorrelationID(ctx, "abc12345")
	ctx = ContextWithRequestID(ctx, "req-1")

	if got := CorrelationIDFromContext(ctx); got != "abc12345" {
		t.Errorf("CorrelationIDFromContext() = %q, want abc12345", got)
	}
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext() = %q, want req-1", got)
	}

	if got := CorrelationIDFromContext(ContextWithNewCorrelationID(context.Background())); len(got) != 8 {
		t.Errorf("ContextWithNewCorrelationID() produced %q", got)
	}
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	setLogger(newTestLogger(&buf))
	defer Init(DefaultConfig())

	ctx := ContextWithRequestID(contextWithCorrelationID(context.Background(), "corr0001"), "req-42")
	Ctx(ctx).Info().Msg("handled")

	output := buf.String()
	if !strings.Contains(output, `"correlation_id":"corr0001"`) {
		t.Errorf("expected correlation_id in output: %s", output)
	}
	if !strings.Contains(output, `"request_id":"req-42"`) {
		t.Errorf("expected request_id in output: %s", output)
	}
}
