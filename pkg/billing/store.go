package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/clinicdesk/pkg/audit"
)

// TenantStore applies tenant state transitions. Both methods return the rows
// that matched after the update; an empty slice with a nil error means nothing
// matched.
type TenantStore interface {
	UpdateTenantByID(ctx context.Context, id uuid.UUID, patch TenantPatch) ([]Tenant, error)
	UpdateTenantsByCustomer(ctx context.Context, customerID string, patch TenantPatch) ([]Tenant, error)
}

// SubscriptionStore maintains the subscription mirror.
type SubscriptionStore interface {
	// UpsertSubscription creates or overwrites the row keyed by StripeSubscriptionID.
	UpsertSubscription(ctx context.Context, sub Subscription) error
	UpdateSubscription(ctx context.Context, stripeSubscriptionID string, patch SubscriptionPatch) ([]Subscription, error)
}

// EventLedger remembers processed event ids so redelivered events can be
// acknowledged without being applied again.
type EventLedger interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, eventID, eventType string) error
}

// EventArchive keeps a copy of every verified raw payload.
type EventArchive interface {
	Archive(ctx context.Context, eventID string, payload []byte) error
}

// AuditLog appends audit entries. *audit.Logger satisfies it.
type AuditLog interface {
	Log(ctx context.Context, action string, opts ...audit.EventOption) error
}
