package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/clinicdesk/pkg/audit"
)

// inserter is the part of *mongo.Collection used by AuditStorage.
type inserter interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
}

// AuditStorage appends audit events to a MongoDB collection. The event id is
// the document _id, so a replayed insert fails instead of duplicating.
type AuditStorage struct {
	coll inserter
}

// NewAuditStorage returns storage writing to the configured audit collection.
func NewAuditStorage(client *mongo.Client, cfg Config) *AuditStorage {
	return newAuditStorage(client.Database(cfg.Database).Collection(cfg.AuditCollection))
}

func newAuditStorage(coll inserter) *AuditStorage {
	if coll == nil {
		panic("mongo: audit collection is required")
	}
	return &AuditStorage{coll: coll}
}

func (s *AuditStorage) Store(ctx context.Context, event audit.Event) error {
	_, err := s.coll.InsertOne(ctx, event)
	return err
}
