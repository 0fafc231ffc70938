// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/authwatch/internal/middleware"
	"github.com/tomtom215/authwatch/internal/models"
)

// Router binds handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil mw uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// Setup configures every route.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusNotFound, models.NewError(models.ErrCodeNotFound, "Route not found", nil))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, models.NewError(models.ErrCodeMethodNotAllowed, "Method not allowed", nil))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit("api"))
		r.Use(APISecurityHeaders())

		r.Post("/events", router.handler.RecordEvent)
		r.Post("/data/clear", router.handler.ClearData)
		r.Get("/stats", router.handler.Stats)

		r.Get("/metrics/history", router.handler.MetricsHistory)
		r.Post("/metrics/collect", router.handler.CollectMetrics)

		r.Route("/collector", func(r chi.Router) {
			r.Get("/status", router.handler.CollectorStatus)
			r.Post("/start", router.handler.CollectorStart)
			r.Post("/stop", router.handler.CollectorStop)
		})

		r.Route("/detector", func(r chi.Router) {
			r.Get("/status", router.handler.DetectorStatus)
			r.Post("/start", router.handler.DetectorStart)
			r.Post("/stop", router.handler.DetectorStop)
			r.Post("/train", router.handler.TrainModel)
			r.Post("/run", router.handler.RunDetection)
		})

		r.Route("/detections", func(r chi.Router) {
			r.Get("/", router.handler.Detections)
			r.Get("/suspicious", router.handler.SuspiciousIdentities)
			r.Get("/history/{identity}", router.handler.IdentityHistory)
		})
	})

	return r
}
