package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/clinicdesk/pkg/environment"
	"github.com/dmitrymomot/clinicdesk/pkg/httpserver"
	"github.com/dmitrymomot/clinicdesk/pkg/requestid"
)

const webhookPath = "/webhooks/stripe"

type routerDeps struct {
	env       environment.Environment
	log       *slog.Logger
	webhook   http.Handler
	registry  *prometheus.Registry
	checks    map[string]httpserver.Check
	checkWait time.Duration
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		middleware.RealIP,
		middleware.Recoverer,
		environment.Middleware(d.env),
	)

	r.Method(http.MethodPost, webhookPath, d.webhook)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(d.log, d.checkWait, d.checks))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{Registry: d.registry}))

	return r
}
