package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Ledger is a processed-event ledger backed by Redis keys with a TTL.
// Webhook senders stop redelivering after a few days, so entries are allowed
// to expire.
type Ledger struct {
	db     redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewLedger wraps client. A non-positive ttl keeps entries forever.
// Panics if client is nil.
func NewLedger(client redis.UniversalClient, cfg Config) *Ledger {
	if client == nil {
		panic("redis: client is required")
	}
	return &Ledger{
		db:     client,
		ttl:    cfg.LedgerTTL,
		prefix: cfg.KeyPrefix,
	}
}

// Seen reports whether eventID was recorded and has not expired.
func (l *Ledger) Seen(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, nil
	}
	n, err := l.db.Exists(ctx, l.key(eventID)).Result()
	if err != nil {
		return false, errors.Join(ErrLedgerUnavailable, err)
	}
	return n > 0, nil
}

// Record stores eventID. Recording the same id twice keeps the first entry and
// its expiry.
func (l *Ledger) Record(ctx context.Context, eventID, eventType string) error {
	if eventID == "" {
		return nil
	}
	ttl := l.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := l.db.SetNX(ctx, l.key(eventID), eventType, ttl).Err(); err != nil {
		return errors.Join(ErrLedgerUnavailable, err)
	}
	return nil
}

func (l *Ledger) key(eventID string) string {
	return l.prefix + eventID
}
