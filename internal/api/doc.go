// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

/*
Package api exposes the detection pipeline over HTTP using the chi router.

Handlers only call the pipeline facade; they never reach into the stores
or loops directly. Request bodies and query parameters are decoded into
explicit request records and validated with go-playground/validator before
anything is constructed from them. Every response uses the
models.APIResponse envelope.

Routes (all under /api/v1 unless noted):

	POST /events                          record one authentication attempt
	POST /data/clear                      drop events, metrics and detections
	GET  /stats                           event and detection totals
	GET  /metrics/history                 metrics series (?identity= for one)
	POST /metrics/collect                 run one collection pass now
	GET  /collector/status                collector loop state
	POST /collector/start|stop            control the collector loop
	GET  /detector/status                 detector loop and model state
	POST /detector/start|stop             control the detector loop
	POST /detector/train                  train the baseline now
	POST /detector/run                    run one detection pass now
	GET  /detections                      detection records (?start=&end=)
	GET  /detections/suspicious           top suspicious identities (?limit=)
	GET  /detections/history/{identity}   one identity's verdicts, newest first
	GET  /health, /health/live            liveness and loop summary
	GET  /metrics                         Prometheus exposition (not under /api/v1)
*/
package api
