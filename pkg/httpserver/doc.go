// Package httpserver runs the service's HTTP listener.
//
// Server wraps net/http with functional options, start and stop hooks, and a
// graceful shutdown that is triggered by context cancellation or SIGINT and
// SIGTERM. In-flight webhook deliveries get ShutdownTimeout to finish.
//
// LivenessHandler and ReadinessHandler back the /health/live and
// /health/ready probes. Readiness runs named dependency checks (database,
// ledger, audit sink) and answers 503 with a per-check JSON report when any
// of them fails:
//
//	r.Get("/health/ready", httpserver.ReadinessHandler(log, cfg.HealthTimeout,
//		map[string]httpserver.Check{"postgres": pg.Healthcheck(pool)},
//	))
//
// Run wraps listener failures with ErrStart and Shutdown wraps graceful
// shutdown failures with ErrShutdown.
package httpserver
