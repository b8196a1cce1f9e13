package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/clinicdesk/pkg/billing"
)

func TestPlanResolver(t *testing.T) {
	t.Parallel()

	r, err := billing.NewPlanResolver(billing.PlanConfig{
		BasicPriceID:      "price_basic_monthly",
		ProPriceID:        "price_pro_monthly",
		EnterprisePriceID: "price_enterprise_monthly",
	})
	require.NoError(t, err)

	tests := []struct {
		priceID string
		plan    billing.Plan
		mapped  bool
	}{
		{"price_basic_monthly", billing.PlanBasic, true},
		{"price_pro_monthly", billing.PlanPro, true},
		{"price_enterprise_monthly", billing.PlanEnterprise, true},
		{"price_unknown", billing.PlanBasic, false},
		{"", billing.PlanBasic, false},
	}

	for _, tt := range tests {
		t.Run(tt.priceID, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.plan, r.Resolve(tt.priceID))
			_, ok := r.Lookup(tt.priceID)
			assert.Equal(t, tt.mapped, ok)
		})
	}
}

func TestPlanResolver_UnsetPricesDoNotMatchEmpty(t *testing.T) {
	t.Parallel()

	r, err := billing.NewPlanResolver(billing.PlanConfig{ProPriceID: "price_pro"})
	require.NoError(t, err)

	_, ok := r.Lookup("")
	assert.False(t, ok)
	assert.Equal(t, billing.PlanPro, r.Resolve("price_pro"))
}

func TestPlanResolver_DuplicatePriceID(t *testing.T) {
	t.Parallel()

	_, err := billing.NewPlanResolver(billing.PlanConfig{
		BasicPriceID:      "price_basic",
		ProPriceID:        "price_shared",
		EnterprisePriceID: "price_shared",
	})
	require.ErrorIs(t, err, billing.ErrDuplicatePriceID)
	assert.Contains(t, err.Error(), "price_shared")
}

func TestPlanResolver_NilResolvesBasic(t *testing.T) {
	t.Parallel()

	var r *billing.PlanResolver
	assert.Equal(t, billing.PlanBasic, r.Resolve("price_pro"))
}

func TestPlanResolver_PricesFile(t *testing.T) {
	t.Parallel()

	t.Run("adds mappings and env wins on conflict", func(t *testing.T) {
		t.Parallel()

		r, err := billing.NewPlanResolver(billing.PlanConfig{
			ProPriceID: "price_pro_monthly",
			PricesFile: "testdata/prices.yaml",
		})
		require.NoError(t, err)

		assert.Equal(t, billing.PlanPro, r.Resolve("price_pro_annual"))
		assert.Equal(t, billing.PlanEnterprise, r.Resolve("price_enterprise_annual"))
		assert.Equal(t, billing.PlanPro, r.Resolve("price_pro_monthly"))
	})

	t.Run("invalid tier", func(t *testing.T) {
		t.Parallel()

		_, err := billing.NewPlanResolver(billing.PlanConfig{PricesFile: "testdata/prices_invalid.yaml"})
		require.ErrorIs(t, err, billing.ErrLoadingPricesFile)
		assert.ErrorIs(t, err, billing.ErrInvalidPlan)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := billing.NewPlanResolver(billing.PlanConfig{PricesFile: "testdata/nope.yaml"})
		require.ErrorIs(t, err, billing.ErrLoadingPricesFile)
	})
}
