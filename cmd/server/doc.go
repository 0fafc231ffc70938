// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

/*
Package main is the entry point for the Authwatch server.

Authwatch ingests authentication attempts over HTTP, aggregates them into
per-identity sliding-window metrics, learns a statistical baseline of
normal behavior, and flags identities whose latest metrics deviate from it.
Suspicious identities can be pushed to a webhook and to a NATS subject.

# Supervisor Tree

	RootSupervisor ("authwatch")
	├── MessagingSupervisor ("messaging-layer")
	│   └── Embedded NATS server (NATS_EMBEDDED=true)
	├── PipelineSupervisor ("pipeline-layer")
	│   └── Collector and detector loops
	└── APISupervisor ("api-layer")
	    └── HTTP server

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
  - Environment variables (PORT, COLLECTOR_AUTO_START, WEBHOOK_URL, ...)
  - Config file (config.yaml, or CONFIG_PATH)
  - Built-in defaults

# Example

	export COLLECTOR_AUTO_START=true
	export DETECTOR_AUTO_START=true
	export WEBHOOK_ENABLED=true
	export WEBHOOK_URL=https://hooks.example.com/authwatch
	./authwatch

The loops can also be left stopped and driven through the API:

	curl -X POST localhost:3000/api/v1/collector/start
	curl -X POST localhost:3000/api/v1/detector/train

# Signal Handling

SIGINT and SIGTERM cancel the tree. The HTTP server drains in-flight
requests, the loops finish their current pass, and notifiers are closed.
*/
package main
