package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/clinicdesk/pkg/audit"
	"github.com/dmitrymomot/clinicdesk/pkg/logger"
)

// Audit actions written by the lifecycle handlers.
const (
	ActionSubscriptionCreated  = "subscription_created"
	ActionSubscriptionCanceled = "subscription_canceled"
	ActionPaymentFailed        = "payment_failed"
)

const (
	entitySubscription = "subscription"
	entityInvoice      = "invoice"
)

// handleCheckoutCompleted activates the tenant named in the session metadata.
// Sessions without a usable tenant id are acknowledged and skipped.
func (p *Processor) handleCheckoutCompleted(ctx context.Context, log *slog.Logger, e *CheckoutCompleted, out *Outcome) error {
	ref := e.TenantRef()
	if ref == "" {
		out.Result = ResultSkipped
		log.WarnContext(ctx, "checkout completed without tenant id in metadata", logger.CustomerID(e.CustomerID))
		return nil
	}
	tenantID, err := uuid.Parse(ref)
	if err != nil {
		out.Result = ResultSkipped
		log.WarnContext(ctx, "checkout completed with invalid tenant id",
			slog.String("tenant_ref", ref),
			logger.CustomerID(e.CustomerID),
		)
		return nil
	}
	log = log.With(logger.TenantID(tenantID), logger.CustomerID(e.CustomerID))

	plan := p.planFromHint(e.PlanRef())
	patch := TenantPatch{
		Plan:                 &plan,
		StripeCustomerID:     optional(e.CustomerID),
		StripeSubscriptionID: optional(e.SubscriptionID),
		SubscriptionStatus:   ptr(StatusActive),
		Active:               ptr(true),
	}.Normalize()

	tenants, err := p.tenants.UpdateTenantByID(ctx, tenantID, patch)
	if err != nil {
		return persistenceError(err)
	}
	out.TenantsUpdated = len(tenants)
	if len(tenants) == 0 {
		out.Result = ResultSkipped
		log.WarnContext(ctx, "checkout completed for unknown tenant")
		return nil
	}
	out.Result = ResultApplied

	if e.SubscriptionID != "" {
		p.sideWrite(ctx, log, out, SideWriteSubscription, p.subs.UpsertSubscription(ctx, Subscription{
			TenantID:             tenantID,
			StripeCustomerID:     e.CustomerID,
			StripeSubscriptionID: e.SubscriptionID,
			Plan:                 plan,
			Status:               StatusActive,
		}))
	}

	p.writeAudit(ctx, log, out, ActionSubscriptionCreated,
		audit.WithTenant(tenantID.String()),
		audit.WithEntity(entitySubscription, firstNonEmpty(e.SubscriptionID, e.SessionID)),
		audit.WithDetail("plan", plan.String()),
		audit.WithDetail("customer_id", e.CustomerID),
		audit.WithDetail("session_id", e.SessionID),
	)
	return nil
}

// handleSubscriptionUpdated mirrors the provider status onto every tenant with
// the event's customer id. The plan only changes when the price is mapped.
func (p *Processor) handleSubscriptionUpdated(ctx context.Context, log *slog.Logger, e *SubscriptionUpdated, out *Outcome) error {
	patch := TenantPatch{SubscriptionStatus: optional(e.Status)}
	if plan, ok := p.plans.Lookup(e.PriceID); ok {
		patch.Plan = &plan
	} else if e.PriceID != "" {
		log.WarnContext(ctx, "subscription price is not mapped to a plan", slog.String("price_id", e.PriceID))
	}
	patch = patch.Normalize()

	if _, ok, err := p.updateByCustomer(ctx, log, e.CustomerID, patch, out); err != nil || !ok {
		return err
	}

	if e.SubscriptionID != "" {
		_, err := p.subs.UpdateSubscription(ctx, e.SubscriptionID, SubscriptionPatch{
			Plan:               patch.Plan,
			Status:             patch.SubscriptionStatus,
			CurrentPeriodStart: e.CurrentPeriodStart,
			CurrentPeriodEnd:   e.CurrentPeriodEnd,
			CanceledAt:         e.CanceledAt,
		})
		p.sideWrite(ctx, log, out, SideWriteSubscription, err)
	}
	return nil
}

// handleSubscriptionDeleted drops matching tenants to basic/canceled. The
// cancellation time comes from the event, or from the first delivery when the
// event carries none, so redelivery is a no-op.
func (p *Processor) handleSubscriptionDeleted(ctx context.Context, log *slog.Logger, e *SubscriptionDeleted, out *Outcome) error {
	patch := TenantPatch{
		Plan:               ptr(PlanBasic),
		SubscriptionStatus: ptr(StatusCanceled),
	}

	tenants, ok, err := p.updateByCustomer(ctx, log, e.CustomerID, patch, out)
	if err != nil || !ok {
		return err
	}

	subPatch := SubscriptionPatch{Plan: patch.Plan, Status: patch.SubscriptionStatus}
	canceledAt := e.CancellationTime()
	if canceledAt.IsZero() {
		// No time in the event: keep the first stored one so redelivery
		// leaves the mirror unchanged.
		canceledAt = p.now().UTC()
		subPatch.DefaultCanceledAt = &canceledAt
	} else {
		subPatch.CanceledAt = &canceledAt
	}

	if e.SubscriptionID != "" {
		subs, err := p.subs.UpdateSubscription(ctx, e.SubscriptionID, subPatch)
		if err == nil && len(subs) > 0 && subs[0].CanceledAt != nil {
			canceledAt = *subs[0].CanceledAt
		}
		p.sideWrite(ctx, log, out, SideWriteSubscription, err)
	}

	for _, t := range tenants {
		p.writeAudit(ctx, log, out, ActionSubscriptionCanceled,
			audit.WithTenant(t.ID.String()),
			audit.WithEntity(entitySubscription, e.SubscriptionID),
			audit.WithDetail("customer_id", e.CustomerID),
			audit.WithDetail("canceled_at", canceledAt.Format(time.RFC3339)),
		)
	}
	return nil
}

// handlePaymentFailed marks matching tenants past due and records the attempt.
func (p *Processor) handlePaymentFailed(ctx context.Context, log *slog.Logger, e *PaymentFailed, out *Outcome) error {
	patch := TenantPatch{SubscriptionStatus: ptr(StatusPastDue)}

	tenants, ok, err := p.updateByCustomer(ctx, log, e.CustomerID, patch, out)
	if err != nil || !ok {
		return err
	}

	for _, t := range tenants {
		opts := []audit.EventOption{
			audit.WithTenant(t.ID.String()),
			audit.WithEntity(entityInvoice, e.InvoiceID),
			audit.WithDetail("attempt_count", e.AttemptCount),
			audit.WithDetail("amount_due", e.AmountDue),
			audit.WithDetail("currency", e.Currency),
			audit.WithDetail("invoice_id", e.InvoiceID),
		}
		if e.SubscriptionID != "" {
			opts = append(opts, audit.WithDetail("subscription_id", e.SubscriptionID))
		}
		p.writeAudit(ctx, log, out, ActionPaymentFailed, opts...)
	}
	return nil
}

// updateByCustomer applies patch to every tenant with customerID. It reports
// false when nothing matched, in which case the outcome is already marked
// skipped.
func (p *Processor) updateByCustomer(ctx context.Context, log *slog.Logger, customerID string, patch TenantPatch, out *Outcome) ([]Tenant, bool, error) {
	if customerID == "" {
		out.Result = ResultSkipped
		log.WarnContext(ctx, "webhook event has no customer id")
		return nil, false, nil
	}

	tenants, err := p.tenants.UpdateTenantsByCustomer(ctx, customerID, patch.Normalize())
	if err != nil {
		return nil, false, persistenceError(err)
	}
	out.TenantsUpdated = len(tenants)
	if len(tenants) == 0 {
		out.Result = ResultSkipped
		log.InfoContext(ctx, "no tenant matches customer", logger.CustomerID(customerID))
		return nil, false, nil
	}

	out.Result = ResultApplied
	return tenants, true, nil
}

// planFromHint accepts a tier name or a price id. Anything else is basic.
func (p *Processor) planFromHint(hint string) Plan {
	if plan, ok := ParsePlan(hint); ok {
		return plan
	}
	return p.plans.Resolve(hint)
}

func (p *Processor) writeAudit(ctx context.Context, log *slog.Logger, out *Outcome, action string, opts ...audit.EventOption) {
	if p.audit == nil {
		return
	}
	p.sideWrite(ctx, log, out, SideWriteAudit, p.audit.Log(ctx, action, opts...))
}

func optional[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}
