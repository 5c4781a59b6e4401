// Package server assembles the gateway and serves it over HTTP.
//
// NewApp builds every collaborator from a loaded configuration: logger,
// metrics collector, tracer, account pool, upstream client, session cache,
// chat registry, artifact store, maintenance scheduler and readiness checks. NewServer
// mounts the OpenAI-compatible routes over an App:
//
//	POST /v1/chat/completions
//	GET  /v1/chat/completions/{chat_id}/account
//	GET  /v1/models
//	GET  /images/{filename}
//	GET  /health, /ready, /version
//	GET  /metrics (when enabled)
//
// # Usage
//
//	app, err := server.NewApp(cfg, server.AppOptions{Version: version})
//	if err != nil {
//	    return err
//	}
//	defer app.Close(context.Background())
//
//	srv := server.NewServer(app)
//	return srv.Start(ctx)
//
// Start blocks until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then drains in-flight requests for up to ShutdownTimeout.
package server
