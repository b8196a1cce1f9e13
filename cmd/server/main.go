// Command server receives payment provider webhooks and applies subscription
// lifecycle changes to clinic tenants.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/clinicdesk/db"
	"github.com/dmitrymomot/clinicdesk/pkg/archive"
	"github.com/dmitrymomot/clinicdesk/pkg/audit"
	"github.com/dmitrymomot/clinicdesk/pkg/billing"
	"github.com/dmitrymomot/clinicdesk/pkg/config"
	"github.com/dmitrymomot/clinicdesk/pkg/environment"
	"github.com/dmitrymomot/clinicdesk/pkg/httpserver"
	"github.com/dmitrymomot/clinicdesk/pkg/logger"
	"github.com/dmitrymomot/clinicdesk/pkg/mongo"
	"github.com/dmitrymomot/clinicdesk/pkg/pg"
	"github.com/dmitrymomot/clinicdesk/pkg/postgrest"
	"github.com/dmitrymomot/clinicdesk/pkg/redis"
	"github.com/dmitrymomot/clinicdesk/pkg/requestid"
	"github.com/dmitrymomot/clinicdesk/svc/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	env := environment.Parse(cfg.AppEnv)
	log := logger.New(
		logger.WithEnvironment(env, cfg.AppName),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	checks := map[string]httpserver.Check{}

	backend, err := openBackend(ctx, cfg, log, checks, &closers)
	if err != nil {
		return err
	}

	var ledger billing.EventLedger = backend
	if cfg.Redis.ConnectionURL != "" {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		closers = append(closers, func() { _ = client.Close() })
		checks["redis"] = redis.Healthcheck(client)
		ledger = redis.NewLedger(client, cfg.Redis)
		log.InfoContext(ctx, "using redis event ledger")
	}

	var auditStorage audit.Storage = backend
	if cfg.AuditBackend == auditMongo {
		client, err := mongo.New(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		closers = append(closers, func() { _ = client.Disconnect(context.Background()) })
		checks["mongo"] = mongo.Healthcheck(client)
		auditStorage = mongo.NewAuditStorage(client, cfg.Mongo)
		log.InfoContext(ctx, "using mongo audit sink")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := []billing.ProcessorOption{
		billing.WithLogger(log),
		billing.WithMetrics(billing.NewMetrics(reg)),
		billing.WithLedger(ledger),
		billing.WithAuditLog(audit.NewLogger(auditStorage, audit.WithRequestIDExtractor(requestid.Lookup))),
	}
	if cfg.Archive.Enabled() {
		a, err := archive.NewS3Archive(ctx, cfg.Archive)
		if err != nil {
			return err
		}
		opts = append(opts, billing.WithArchive(a))
		log.InfoContext(ctx, "archiving verified events", slog.String("bucket", cfg.Archive.Bucket))
	}

	processor, err := billing.NewProcessor(cfg.Billing, backend, backend, opts...)
	if err != nil {
		return err
	}

	router := newRouter(routerDeps{
		env:       env,
		log:       log,
		webhook:   billing.NewWebhookHandler(processor, cfg.Billing.ProcessingTimeout, log),
		registry:  reg,
		checks:    checks,
		checkWait: cfg.HTTP.HealthTimeout,
	})

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, router)
}

// backend is what both persistence implementations provide.
type backend interface {
	billing.TenantStore
	billing.SubscriptionStore
	billing.EventLedger
	audit.Storage
}

func openBackend(ctx context.Context, cfg appConfig, log *slog.Logger, checks map[string]httpserver.Check, closers *[]func()) (backend, error) {
	switch cfg.StoreBackend {
	case storeREST:
		client, err := postgrest.New(cfg.Persistence)
		if err != nil {
			return nil, err
		}
		s := store.NewRESTStore(client)
		checks["persistence"] = func(ctx context.Context) error {
			_, err := s.Seen(ctx, "readiness-probe")
			return err
		}
		log.InfoContext(ctx, "using persistence gateway")
		return s, nil

	case storePostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, pool.Close)
		checks["postgres"] = pg.Healthcheck(pool)

		if cfg.Postgres.AutoMigrate {
			if err := pg.Migrate(ctx, pool, db.Migrations(), cfg.Postgres, log); err != nil {
				return nil, err
			}
		}
		return store.NewPostgresStore(pool), nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
}
