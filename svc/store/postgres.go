package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/clinicdesk/pkg/audit"
	"github.com/dmitrymomot/clinicdesk/pkg/billing"
)

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	tenantColumns       = "id, plan, stripe_customer_id, stripe_subscription_id, subscription_status, active"
	subscriptionColumns = "tenant_id, stripe_customer_id, stripe_subscription_id, plan, status, current_period_start, current_period_end, canceled_at"
)

// PostgresStore persists tenants, the subscription mirror, audit entries and
// processed event ids in PostgreSQL. It implements billing.TenantStore,
// billing.SubscriptionStore, billing.EventLedger and audit.Storage.
type PostgresStore struct {
	db DB
}

// NewPostgresStore panics if db is nil.
func NewPostgresStore(db DB) *PostgresStore {
	if db == nil {
		panic("store: postgres connection is required")
	}
	return &PostgresStore{db: db}
}

func (s *PostgresStore) UpdateTenantByID(ctx context.Context, id uuid.UUID, patch billing.TenantPatch) ([]billing.Tenant, error) {
	return s.updateTenants(ctx, "id", id, patch)
}

func (s *PostgresStore) UpdateTenantsByCustomer(ctx context.Context, customerID string, patch billing.TenantPatch) ([]billing.Tenant, error) {
	return s.updateTenants(ctx, "stripe_customer_id", customerID, patch)
}

func (s *PostgresStore) updateTenants(ctx context.Context, column string, value any, patch billing.TenantPatch) ([]billing.Tenant, error) {
	set, args := tenantAssignments(patch)
	args = append(args, value)
	query := fmt.Sprintf("UPDATE tenants SET %s WHERE %s = $%d RETURNING %s",
		strings.Join(set, ", "), column, len(args), tenantColumns)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update tenants by %s: %w", column, err)
	}
	tenants, err := pgx.CollectRows(rows, scanTenant)
	if err != nil {
		return nil, fmt.Errorf("update tenants by %s: %w", column, err)
	}
	return tenants, nil
}

func (s *PostgresStore) UpsertSubscription(ctx context.Context, sub billing.Subscription) error {
	const query = `INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (stripe_subscription_id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			current_period_start = COALESCE(EXCLUDED.current_period_start, subscriptions.current_period_start),
			current_period_end = COALESCE(EXCLUDED.current_period_end, subscriptions.current_period_end),
			canceled_at = EXCLUDED.canceled_at,
			updated_at = now()`

	_, err := s.db.Exec(ctx, query,
		sub.TenantID, sub.StripeCustomerID, sub.StripeSubscriptionID, string(sub.Plan), string(sub.Status),
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CanceledAt,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription %s: %w", sub.StripeSubscriptionID, err)
	}
	return nil
}

func (s *PostgresStore) UpdateSubscription(ctx context.Context, stripeSubscriptionID string, patch billing.SubscriptionPatch) ([]billing.Subscription, error) {
	set, args := subscriptionAssignments(patch)
	args = append(args, stripeSubscriptionID)
	query := fmt.Sprintf("UPDATE subscriptions SET %s WHERE stripe_subscription_id = $%d RETURNING %s",
		strings.Join(set, ", "), len(args), subscriptionColumns)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update subscription %s: %w", stripeSubscriptionID, err)
	}
	subs, err := pgx.CollectRows(rows, scanSubscription)
	if err != nil {
		return nil, fmt.Errorf("update subscription %s: %w", stripeSubscriptionID, err)
	}
	return subs, nil
}

// Store appends an audit entry.
func (s *PostgresStore) Store(ctx context.Context, event audit.Event) error {
	const query = `INSERT INTO audit_logs (id, tenant_id, action, entity, entity_id, details, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	tenantID, err := nullableUUID(event.TenantID)
	if err != nil {
		return fmt.Errorf("store audit event: %w", err)
	}
	details := event.Details
	if details == nil {
		details = map[string]any{}
	}

	_, err = s.db.Exec(ctx, query,
		event.ID, tenantID, event.Action, event.Entity, event.EntityID, details, nullableText(event.RequestID), event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store audit event: %w", err)
	}
	return nil
}

// Seen reports whether eventID is in the webhook_events ledger.
func (s *PostgresStore) Seen(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM webhook_events WHERE event_id = $1)", eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check webhook event %s: %w", eventID, err)
	}
	return exists, nil
}

// Record adds eventID to the ledger. The primary key makes repeated calls no-ops.
func (s *PostgresStore) Record(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO webhook_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	if err != nil {
		return fmt.Errorf("record webhook event %s: %w", eventID, err)
	}
	return nil
}

// tenantAssignments builds the SET list for a normalized patch. updated_at is
// always bumped, so the list is never empty.
func tenantAssignments(patch billing.TenantPatch) ([]string, []any) {
	patch = patch.Normalize()

	var set []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Plan != nil {
		add("plan", string(*patch.Plan))
	}
	if patch.StripeCustomerID != nil {
		add("stripe_customer_id", *patch.StripeCustomerID)
	}
	if patch.StripeSubscriptionID != nil {
		add("stripe_subscription_id", *patch.StripeSubscriptionID)
	}
	if patch.SubscriptionStatus != nil {
		add("subscription_status", string(*patch.SubscriptionStatus))
	}
	if patch.Active != nil {
		add("active", *patch.Active)
	}
	return append(set, "updated_at = now()"), args
}

func subscriptionAssignments(patch billing.SubscriptionPatch) ([]string, []any) {
	var set []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Plan != nil {
		add("plan", string(*patch.Plan))
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.CurrentPeriodStart != nil {
		add("current_period_start", *patch.CurrentPeriodStart)
	}
	if patch.CurrentPeriodEnd != nil {
		add("current_period_end", *patch.CurrentPeriodEnd)
	}
	if patch.CanceledAt != nil {
		add("canceled_at", *patch.CanceledAt)
	} else if patch.DefaultCanceledAt != nil {
		args = append(args, *patch.DefaultCanceledAt)
		set = append(set, fmt.Sprintf("canceled_at = COALESCE(canceled_at, $%d)", len(args)))
	}
	return append(set, "updated_at = now()"), args
}

func scanTenant(row pgx.CollectableRow) (billing.Tenant, error) {
	var (
		t                                billing.Tenant
		plan                             string
		customerID, subscriptionID, stat *string
	)
	if err := row.Scan(&t.ID, &plan, &customerID, &subscriptionID, &stat, &t.Active); err != nil {
		return billing.Tenant{}, err
	}
	t.Plan = billing.Plan(plan)
	t.StripeCustomerID = deref(customerID)
	t.StripeSubscriptionID = deref(subscriptionID)
	t.SubscriptionStatus = billing.Status(deref(stat))
	return t, nil
}

func scanSubscription(row pgx.CollectableRow) (billing.Subscription, error) {
	var (
		s            billing.Subscription
		plan, status string
	)
	err := row.Scan(&s.TenantID, &s.StripeCustomerID, &s.StripeSubscriptionID, &plan, &status,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CanceledAt)
	if err != nil {
		return billing.Subscription{}, err
	}
	s.Plan = billing.Plan(plan)
	s.Status = billing.Status(status)
	return s, nil
}

func nullableUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
