package main

import (
	"fmt"

	"github.com/dmitrymomot/clinicdesk/pkg/archive"
	"github.com/dmitrymomot/clinicdesk/pkg/billing"
	"github.com/dmitrymomot/clinicdesk/pkg/httpserver"
	"github.com/dmitrymomot/clinicdesk/pkg/mongo"
	"github.com/dmitrymomot/clinicdesk/pkg/pg"
	"github.com/dmitrymomot/clinicdesk/pkg/postgrest"
	"github.com/dmitrymomot/clinicdesk/pkg/redis"
)

const (
	storePostgres = "postgres"
	storeREST     = "rest"

	auditStore = "store"
	auditMongo = "mongo"
)

type appConfig struct {
	AppName      string `env:"APP_NAME" envDefault:"clinicdesk"`
	AppEnv       string `env:"APP_ENV" envDefault:"development"`
	StoreBackend string `env:"STORE_BACKEND" envDefault:"postgres"`
	AuditBackend string `env:"AUDIT_BACKEND" envDefault:"store"`

	Billing     billing.Config
	Postgres    pg.Config
	Persistence postgrest.Config
	Redis       redis.Config
	Mongo       mongo.Config
	Archive     archive.Config
	HTTP        httpserver.Config
}

func (c appConfig) validate() error {
	switch c.StoreBackend {
	case storePostgres, storeREST:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q: want %q or %q", c.StoreBackend, storePostgres, storeREST)
	}
	switch c.AuditBackend {
	case auditStore:
	case auditMongo:
		if c.Mongo.ConnectionURL == "" {
			return fmt.Errorf("AUDIT_BACKEND=%s requires MONGODB_URL", auditMongo)
		}
	default:
		return fmt.Errorf("unknown AUDIT_BACKEND %q: want %q or %q", c.AuditBackend, auditStore, auditMongo)
	}
	if c.HTTP.WriteTimeout > 0 && c.HTTP.WriteTimeout <= c.Billing.ProcessingTimeout {
		return fmt.Errorf("HTTP_WRITE_TIMEOUT (%s) must exceed WEBHOOK_PROCESSING_TIMEOUT (%s)",
			c.HTTP.WriteTimeout, c.Billing.ProcessingTimeout)
	}
	return nil
}
