package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Storage persists audit events. Implementations must only ever append.
type Storage interface {
	Store(ctx context.Context, event Event) error
}

// contextExtractor extracts string values from context.
// It returns (value, found) where found indicates if extraction succeeded.
type contextExtractor func(context.Context) (string, bool)

// Logger builds audit events and hands them to a Storage.
type Logger struct {
	storage            Storage
	tenantIDExtractor  contextExtractor
	requestIDExtractor contextExtractor
	now                func() time.Time
}

// Option configures Logger behavior during initialization
type Option func(*Logger)

func WithTenantIDExtractor(fn func(context.Context) (string, bool)) Option {
	return func(l *Logger) {
		l.tenantIDExtractor = fn
	}
}

func WithRequestIDExtractor(fn func(context.Context) (string, bool)) Option {
	return func(l *Logger) {
		l.requestIDExtractor = fn
	}
}

// WithClock overrides the source of CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLogger creates a new audit logger.
// Panics if storage is nil.
func NewLogger(storage Storage, opts ...Option) *Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	l := &Logger{
		storage: storage,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Log records action. Options are applied after the context extractors, so an
// explicit WithTenant overrides the tenant found in ctx.
func (l *Logger) Log(ctx context.Context, action string, opts ...EventOption) error {
	event := l.eventFromContext(ctx)
	event.ID = uuid.New().String()
	event.Action = action
	event.CreatedAt = l.now().UTC()

	for _, opt := range opts {
		opt(&event)
	}

	if err := event.Validate(); err != nil {
		return err
	}

	if err := l.storage.Store(ctx, event); err != nil {
		return errors.Join(ErrStorageNotAvailable, err)
	}
	return nil
}

func (l *Logger) eventFromContext(ctx context.Context) Event {
	event := Event{}

	if l.tenantIDExtractor != nil {
		if tenantID, ok := l.tenantIDExtractor(ctx); ok {
			event.TenantID = tenantID
		}
	}

	if l.requestIDExtractor != nil {
		if requestID, ok := l.requestIDExtractor(ctx); ok {
			event.RequestID = requestID
		}
	}

	return event
}
