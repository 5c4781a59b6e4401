// Package health provides the gateway's liveness, readiness and version
// endpoints.
//
// # Endpoints
//
//   - /health: liveness. Answers 200 while the process can serve HTTP.
//   - /ready: readiness. Runs every registered check and answers 503 when
//     any of them fails.
//   - /version: build information.
//
// # Usage
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("accounts", health.AccountsCheck(pool))
//	checker.RegisterCheck("artifact_dir", health.DirCheck(store.Dir()))
//
//	mux.Handle("GET /health", checker.LivenessHandler())
//	mux.Handle("GET /ready", checker.ReadinessHandler())
//	mux.Handle("GET /version", health.VersionHandler(info))
//
// # Liveness vs Readiness
//
// Liveness never consults dependencies, so an upstream outage does not get
// the process restarted. Readiness reflects whether a request sent now has
// a chance of succeeding: accounts are configured, the artifact directory
// is writable, the catalog answers, and background maintenance runs.
//
// Checks run concurrently, each bounded by the checker's timeout. A check
// that overruns is reported as unhealthy with "health check timeout".
package health
