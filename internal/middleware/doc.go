// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

/*
Package middleware provides the HTTP middleware shared by every Authwatch
route.

Key Components:

  - Request ID: UUID-based request tracking, propagated into the logging
    context so handler logs carry request_id and correlation_id
  - Prometheus Metrics: request count, latency and in-flight gauge, labelled
    by chi route pattern rather than raw path

Both are chi-style func(http.Handler) http.Handler values:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)

Labelling by route pattern keeps metric cardinality bounded when paths
carry identities (for example /detections/history/{identity}).
*/
package middleware
