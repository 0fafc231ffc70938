// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

/*
Package supervisor provides process supervision for Authwatch using suture v4.

The tree groups long-running services into layers for failure isolation:

	RootSupervisor ("authwatch")
	├── MessagingSupervisor ("messaging-layer")
	│   └── BrokerService (if the embedded NATS server is enabled)
	├── PipelineSupervisor ("pipeline-layer")
	│   └── PipelineService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Supervisor events are
logged through sutureslog, whose slog.Logger is backed by zerolog via
logging.NewSlogLogger, so restarts appear in the same structured log stream
as everything else.

Usage in main.go:

	slogger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(slogger, supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddPipelineService(services.NewPipelineService(svc, cfg.Collector.AutoStart, cfg.Detector.AutoStart))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    logging.Error().Err(err).Msg("Supervisor stopped")
	}

The service wrappers live in the services subpackage so they can be tested
without building a tree.
*/
package supervisor
