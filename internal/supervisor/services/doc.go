// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

/*
Package services adapts Authwatch components to suture.Service.

Each wrapper translates a component's own lifecycle into suture's
Serve(ctx) contract: start, block until ctx is done, stop within a
bounded timeout, and return ctx.Err() on a normal shutdown.

  - PipelineService: starts the collector and detector loops that are
    configured to auto-start and stops both on shutdown
  - BrokerService: runs the embedded NATS server
  - HTTPServerService: runs an http.Server with graceful shutdown

Wrappers depend on small interfaces rather than concrete types so they can
be tested with fakes and so this package does not import the pipeline.
*/
package services
