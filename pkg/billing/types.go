package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
)

// Plan is an internal billing tier controlling feature entitlement.
type Plan string

const (
	PlanBasic      Plan = "basic"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

// ParsePlan returns the tier named by s. Unknown names report false.
func ParsePlan(s string) (Plan, bool) {
	switch p := Plan(s); p {
	case PlanBasic, PlanPro, PlanEnterprise:
		return p, true
	}
	return "", false
}

func (p Plan) String() string { return string(p) }

// Status mirrors the provider's subscription status values.
type Status string

const (
	StatusActive            = Status(stripe.SubscriptionStatusActive)
	StatusTrialing          = Status(stripe.SubscriptionStatusTrialing)
	StatusPastDue           = Status(stripe.SubscriptionStatusPastDue)
	StatusCanceled          = Status(stripe.SubscriptionStatusCanceled)
	StatusUnpaid            = Status(stripe.SubscriptionStatusUnpaid)
	StatusIncomplete        = Status(stripe.SubscriptionStatusIncomplete)
	StatusIncompleteExpired = Status(stripe.SubscriptionStatusIncompleteExpired)
)

// ForcesBasic reports whether a tenant in this status must be on the basic plan.
func (s Status) ForcesBasic() bool {
	return s == StatusCanceled || s == StatusUnpaid
}

func (s Status) String() string { return string(s) }

// Tenant is one clinic account as seen by the billing core.
type Tenant struct {
	ID                   uuid.UUID
	Plan                 Plan
	StripeCustomerID     string
	StripeSubscriptionID string
	SubscriptionStatus   Status
	Active               bool
}

// TenantPatch is a partial tenant update. Nil fields are left untouched.
type TenantPatch struct {
	Plan                 *Plan
	StripeCustomerID     *string
	StripeSubscriptionID *string
	SubscriptionStatus   *Status
	Active               *bool
}

// Normalize forces the basic plan when the patch moves the tenant into a
// canceled or unpaid status. Every tenant write goes through it.
func (p TenantPatch) Normalize() TenantPatch {
	if p.SubscriptionStatus != nil && p.SubscriptionStatus.ForcesBasic() {
		p.Plan = ptr(PlanBasic)
	}
	return p
}

// Apply returns t with the patch fields overwritten.
func (p TenantPatch) Apply(t Tenant) Tenant {
	p = p.Normalize()
	if p.Plan != nil {
		t.Plan = *p.Plan
	}
	if p.StripeCustomerID != nil {
		t.StripeCustomerID = *p.StripeCustomerID
	}
	if p.StripeSubscriptionID != nil {
		t.StripeSubscriptionID = *p.StripeSubscriptionID
	}
	if p.SubscriptionStatus != nil {
		t.SubscriptionStatus = *p.SubscriptionStatus
	}
	if p.Active != nil {
		t.Active = *p.Active
	}
	return t
}

// Subscription is the local mirror of the provider's subscription record.
// Rows are never deleted; cancellation is expressed through Status.
type Subscription struct {
	TenantID             uuid.UUID
	StripeCustomerID     string
	StripeSubscriptionID string
	Plan                 Plan
	Status               Status
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	CanceledAt           *time.Time
}

// SubscriptionPatch is a partial subscription mirror update.
type SubscriptionPatch struct {
	Plan               *Plan
	Status             *Status
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CanceledAt         *time.Time
	// DefaultCanceledAt is written only when the stored canceled_at is unset.
	// CanceledAt wins when both are given.
	DefaultCanceledAt *time.Time
}

// Apply returns s with the patch fields overwritten.
func (p SubscriptionPatch) Apply(s Subscription) Subscription {
	if p.Plan != nil {
		s.Plan = *p.Plan
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.CurrentPeriodStart != nil {
		s.CurrentPeriodStart = p.CurrentPeriodStart
	}
	if p.CurrentPeriodEnd != nil {
		s.CurrentPeriodEnd = p.CurrentPeriodEnd
	}
	if p.CanceledAt != nil {
		s.CanceledAt = p.CanceledAt
	} else if p.DefaultCanceledAt != nil && s.CanceledAt == nil {
		s.CanceledAt = p.DefaultCanceledAt
	}
	return s
}

func ptr[T any](v T) *T { return &v }
