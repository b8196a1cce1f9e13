package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/clinicdesk/pkg/audit"
	"github.com/dmitrymomot/clinicdesk/pkg/billing"
	"github.com/dmitrymomot/clinicdesk/pkg/postgrest"
)

// Gateway is the subset of *postgrest.Client used by RESTStore.
type Gateway interface {
	Select(ctx context.Context, table string, req postgrest.Request, out any) error
	Insert(ctx context.Context, table string, req postgrest.Request, out any) error
	Update(ctx context.Context, table string, req postgrest.Request, out any) error
}

// RESTStore talks to the same schema as PostgresStore through a PostgREST
// gateway. It implements billing.TenantStore, billing.SubscriptionStore,
// billing.EventLedger and audit.Storage.
type RESTStore struct {
	gw  Gateway
	now func() time.Time
}

// NewRESTStore panics if gw is nil.
func NewRESTStore(gw Gateway) *RESTStore {
	if gw == nil {
		panic("store: persistence gateway is required")
	}
	return &RESTStore{gw: gw, now: time.Now}
}

type tenantRow struct {
	ID                   uuid.UUID `json:"id"`
	Plan                 string    `json:"plan"`
	StripeCustomerID     *string   `json:"stripe_customer_id"`
	StripeSubscriptionID *string   `json:"stripe_subscription_id"`
	SubscriptionStatus   *string   `json:"subscription_status"`
	Active               bool      `json:"active"`
}

func (r tenantRow) tenant() billing.Tenant {
	return billing.Tenant{
		ID:                   r.ID,
		Plan:                 billing.Plan(r.Plan),
		StripeCustomerID:     deref(r.StripeCustomerID),
		StripeSubscriptionID: deref(r.StripeSubscriptionID),
		SubscriptionStatus:   billing.Status(deref(r.SubscriptionStatus)),
		Active:               r.Active,
	}
}

type subscriptionRow struct {
	TenantID             uuid.UUID  `json:"tenant_id"`
	StripeCustomerID     string     `json:"stripe_customer_id"`
	StripeSubscriptionID string     `json:"stripe_subscription_id"`
	Plan                 string     `json:"plan"`
	Status               string     `json:"status"`
	CurrentPeriodStart   *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
	CanceledAt           *time.Time `json:"canceled_at"`
}

func (r subscriptionRow) subscription() billing.Subscription {
	return billing.Subscription{
		TenantID:             r.TenantID,
		StripeCustomerID:     r.StripeCustomerID,
		StripeSubscriptionID: r.StripeSubscriptionID,
		Plan:                 billing.Plan(r.Plan),
		Status:               billing.Status(r.Status),
		CurrentPeriodStart:   r.CurrentPeriodStart,
		CurrentPeriodEnd:     r.CurrentPeriodEnd,
		CanceledAt:           r.CanceledAt,
	}
}

func (s *RESTStore) UpdateTenantByID(ctx context.Context, id uuid.UUID, patch billing.TenantPatch) ([]billing.Tenant, error) {
	return s.updateTenants(ctx, "id", id.String(), patch)
}

func (s *RESTStore) UpdateTenantsByCustomer(ctx context.Context, customerID string, patch billing.TenantPatch) ([]billing.Tenant, error) {
	return s.updateTenants(ctx, "stripe_customer_id", customerID, patch)
}

func (s *RESTStore) updateTenants(ctx context.Context, column, value string, patch billing.TenantPatch) ([]billing.Tenant, error) {
	var rows []tenantRow
	err := s.gw.Update(ctx, "tenants", postgrest.Request{
		Filter: map[string]string{column: postgrest.Eq(value)},
		Body:   s.tenantBody(patch),
		Select: tenantSelect,
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("update tenants by %s: %w", column, err)
	}

	tenants := make([]billing.Tenant, 0, len(rows))
	for _, r := range rows {
		tenants = append(tenants, r.tenant())
	}
	return tenants, nil
}

func (s *RESTStore) UpsertSubscription(ctx context.Context, sub billing.Subscription) error {
	err := s.gw.Insert(ctx, "subscriptions", postgrest.Request{
		Body: subscriptionRow{
			TenantID:             sub.TenantID,
			StripeCustomerID:     sub.StripeCustomerID,
			StripeSubscriptionID: sub.StripeSubscriptionID,
			Plan:                 string(sub.Plan),
			Status:               string(sub.Status),
			CurrentPeriodStart:   sub.CurrentPeriodStart,
			CurrentPeriodEnd:     sub.CurrentPeriodEnd,
			CanceledAt:           sub.CanceledAt,
		},
		OnConflict: "stripe_subscription_id",
		Prefer:     []string{"resolution=merge-duplicates"},
	}, nil)
	if err != nil {
		return fmt.Errorf("upsert subscription %s: %w", sub.StripeSubscriptionID, err)
	}
	return nil
}

func (s *RESTStore) UpdateSubscription(ctx context.Context, stripeSubscriptionID string, patch billing.SubscriptionPatch) ([]billing.Subscription, error) {
	body := map[string]any{"updated_at": s.now().UTC()}
	if patch.Plan != nil {
		body["plan"] = string(*patch.Plan)
	}
	if patch.Status != nil {
		body["status"] = string(*patch.Status)
	}
	if patch.CurrentPeriodStart != nil {
		body["current_period_start"] = *patch.CurrentPeriodStart
	}
	if patch.CurrentPeriodEnd != nil {
		body["current_period_end"] = *patch.CurrentPeriodEnd
	}
	if patch.CanceledAt != nil {
		body["canceled_at"] = *patch.CanceledAt
	}

	// PATCH bodies cannot express COALESCE, so an unset canceled_at is
	// filled by a separate conditional update first.
	if patch.CanceledAt == nil && patch.DefaultCanceledAt != nil {
		err := s.gw.Update(ctx, "subscriptions", postgrest.Request{
			Filter: map[string]string{
				"stripe_subscription_id": postgrest.Eq(stripeSubscriptionID),
				"canceled_at":            "is.null",
			},
			Body: map[string]any{"canceled_at": *patch.DefaultCanceledAt},
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("update subscription %s: %w", stripeSubscriptionID, err)
		}
	}

	var rows []subscriptionRow
	err := s.gw.Update(ctx, "subscriptions", postgrest.Request{
		Filter: map[string]string{"stripe_subscription_id": postgrest.Eq(stripeSubscriptionID)},
		Body:   body,
		Select: subscriptionSelect,
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("update subscription %s: %w", stripeSubscriptionID, err)
	}

	subs := make([]billing.Subscription, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.subscription())
	}
	return subs, nil
}

// Store appends an audit entry.
func (s *RESTStore) Store(ctx context.Context, event audit.Event) error {
	body := map[string]any{
		"id":         event.ID,
		"action":     event.Action,
		"entity":     event.Entity,
		"entity_id":  event.EntityID,
		"details":    event.Details,
		"created_at": event.CreatedAt,
	}
	if event.Details == nil {
		body["details"] = map[string]any{}
	}
	if event.TenantID != "" {
		body["tenant_id"] = event.TenantID
	}
	if event.RequestID != "" {
		body["request_id"] = event.RequestID
	}

	if err := s.gw.Insert(ctx, "audit_logs", postgrest.Request{Body: body}, nil); err != nil {
		return fmt.Errorf("store audit event: %w", err)
	}
	return nil
}

func (s *RESTStore) Seen(ctx context.Context, eventID string) (bool, error) {
	var rows []struct {
		EventID string `json:"event_id"`
	}
	err := s.gw.Select(ctx, "webhook_events", postgrest.Request{
		Filter: map[string]string{"event_id": postgrest.Eq(eventID)},
		Select: "event_id",
	}, &rows)
	if err != nil {
		return false, fmt.Errorf("check webhook event %s: %w", eventID, err)
	}
	return len(rows) > 0, nil
}

func (s *RESTStore) Record(ctx context.Context, eventID, eventType string) error {
	err := s.gw.Insert(ctx, "webhook_events", postgrest.Request{
		Body:       map[string]any{"event_id": eventID, "event_type": eventType},
		OnConflict: "event_id",
		Prefer:     []string{"resolution=ignore-duplicates"},
	}, nil)
	if err != nil && !errors.Is(err, postgrest.ErrUniqueViolation) {
		return fmt.Errorf("record webhook event %s: %w", eventID, err)
	}
	return nil
}

const (
	tenantSelect       = "id,plan,stripe_customer_id,stripe_subscription_id,subscription_status,active"
	subscriptionSelect = "tenant_id,stripe_customer_id,stripe_subscription_id,plan,status,current_period_start,current_period_end,canceled_at"
)

func (s *RESTStore) tenantBody(patch billing.TenantPatch) map[string]any {
	patch = patch.Normalize()

	body := map[string]any{"updated_at": s.now().UTC()}
	if patch.Plan != nil {
		body["plan"] = string(*patch.Plan)
	}
	if patch.StripeCustomerID != nil {
		body["stripe_customer_id"] = *patch.StripeCustomerID
	}
	if patch.StripeSubscriptionID != nil {
		body["stripe_subscription_id"] = *patch.StripeSubscriptionID
	}
	if patch.SubscriptionStatus != nil {
		body["subscription_status"] = string(*patch.SubscriptionStatus)
	}
	if patch.Active != nil {
		body["active"] = *patch.Active
	}
	return body
}
