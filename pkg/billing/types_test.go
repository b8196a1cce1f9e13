package billing_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/clinicdesk/pkg/billing"
)

func ptr[T any](v T) *T { return &v }

func TestParsePlan(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"basic", "pro", "enterprise"} {
		plan, ok := billing.ParsePlan(name)
		assert.True(t, ok, name)
		assert.Equal(t, name, plan.String())
	}

	for _, name := range []string{"", "Pro", "gold", "price_123"} {
		_, ok := billing.ParsePlan(name)
		assert.False(t, ok, name)
	}
}

func TestStatus_ForcesBasic(t *testing.T) {
	t.Parallel()

	assert.True(t, billing.StatusCanceled.ForcesBasic())
	assert.True(t, billing.StatusUnpaid.ForcesBasic())
	assert.False(t, billing.StatusActive.ForcesBasic())
	assert.False(t, billing.StatusPastDue.ForcesBasic())
	assert.False(t, billing.StatusTrialing.ForcesBasic())
}

func TestTenantPatch_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		patch  billing.TenantPatch
		expect *billing.Plan
	}{
		{
			name:   "canceled overrides plan",
			patch:  billing.TenantPatch{Plan: ptr(billing.PlanEnterprise), SubscriptionStatus: ptr(billing.StatusCanceled)},
			expect: ptr(billing.PlanBasic),
		},
		{
			name:   "unpaid sets plan when absent",
			patch:  billing.TenantPatch{SubscriptionStatus: ptr(billing.StatusUnpaid)},
			expect: ptr(billing.PlanBasic),
		},
		{
			name:   "active keeps plan",
			patch:  billing.TenantPatch{Plan: ptr(billing.PlanPro), SubscriptionStatus: ptr(billing.StatusActive)},
			expect: ptr(billing.PlanPro),
		},
		{
			name:   "past due leaves plan untouched",
			patch:  billing.TenantPatch{SubscriptionStatus: ptr(billing.StatusPastDue)},
			expect: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, tt.patch.Normalize().Plan)
		})
	}
}

func TestTenantPatch_Apply(t *testing.T) {
	t.Parallel()

	tenant := billing.Tenant{
		ID:                 uuid.New(),
		Plan:               billing.PlanPro,
		StripeCustomerID:   "cus_1",
		SubscriptionStatus: billing.StatusActive,
		Active:             true,
	}

	got := billing.TenantPatch{SubscriptionStatus: ptr(billing.StatusUnpaid)}.Apply(tenant)

	assert.Equal(t, billing.PlanBasic, got.Plan)
	assert.Equal(t, billing.StatusUnpaid, got.SubscriptionStatus)
	assert.Equal(t, "cus_1", got.StripeCustomerID)
	assert.True(t, got.Active)
}

func TestSubscriptionPatch_DefaultCanceledAt(t *testing.T) {
	t.Parallel()

	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	t.Run("fills unset value", func(t *testing.T) {
		t.Parallel()

		s := billing.SubscriptionPatch{DefaultCanceledAt: &first}.Apply(billing.Subscription{})
		require.NotNil(t, s.CanceledAt)
		assert.Equal(t, first, *s.CanceledAt)
	})

	t.Run("keeps stored value", func(t *testing.T) {
		t.Parallel()

		s := billing.SubscriptionPatch{DefaultCanceledAt: &later}.Apply(billing.Subscription{CanceledAt: &first})
		assert.Equal(t, first, *s.CanceledAt)
	})

	t.Run("explicit value wins", func(t *testing.T) {
		t.Parallel()

		s := billing.SubscriptionPatch{CanceledAt: &later, DefaultCanceledAt: &first}.Apply(billing.Subscription{CanceledAt: &first})
		assert.Equal(t, later, *s.CanceledAt)
	})
}
