package billing

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PlanConfig maps provider price ids to plan tiers.
type PlanConfig struct {
	BasicPriceID      string `env:"STRIPE_PRICE_BASIC"`
	ProPriceID        string `env:"STRIPE_PRICE_PRO"`
	EnterprisePriceID string `env:"STRIPE_PRICE_ENTERPRISE"`

	// PricesFile is an optional YAML file with additional price mappings,
	// e.g. annual or legacy prices:
	//
	//	prices:
	//	  price_pro_annual: pro
	PricesFile string `env:"PLAN_PRICES_FILE"`
}

type pricesFile struct {
	Prices map[string]string `yaml:"prices"`
}

// PlanResolver resolves provider price ids to plan tiers. It is immutable
// after construction and safe for concurrent use.
type PlanResolver struct {
	prices map[string]Plan
}

// NewPlanResolver builds a resolver from cfg. The three configured price ids
// take precedence over entries from the prices file and must be distinct.
func NewPlanResolver(cfg PlanConfig) (*PlanResolver, error) {
	prices := make(map[string]Plan)

	if cfg.PricesFile != "" {
		extra, err := loadPricesFile(cfg.PricesFile)
		if err != nil {
			return nil, err
		}
		for priceID, plan := range extra {
			prices[priceID] = plan
		}
	}

	configured := make(map[string]Plan, 3)
	for _, m := range []struct {
		priceID string
		plan    Plan
	}{
		{cfg.BasicPriceID, PlanBasic},
		{cfg.ProPriceID, PlanPro},
		{cfg.EnterprisePriceID, PlanEnterprise},
	} {
		if m.priceID == "" {
			continue
		}
		if other, ok := configured[m.priceID]; ok {
			return nil, fmt.Errorf("%w: price %q is configured for both %s and %s",
				ErrDuplicatePriceID, m.priceID, other, m.plan)
		}
		configured[m.priceID] = m.plan
		prices[m.priceID] = m.plan
	}

	return &PlanResolver{prices: prices}, nil
}

// Lookup reports the tier for priceID and whether it is mapped at all.
func (r *PlanResolver) Lookup(priceID string) (Plan, bool) {
	if r == nil || priceID == "" {
		return "", false
	}
	plan, ok := r.prices[priceID]
	return plan, ok
}

// Resolve returns the tier for priceID, or PlanBasic when it is absent or
// unknown.
func (r *PlanResolver) Resolve(priceID string) Plan {
	if plan, ok := r.Lookup(priceID); ok {
		return plan
	}
	return PlanBasic
}

func loadPricesFile(path string) (map[string]Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrLoadingPricesFile, err)
	}

	var f pricesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Join(ErrLoadingPricesFile, err)
	}

	prices := make(map[string]Plan, len(f.Prices))
	for priceID, name := range f.Prices {
		plan, ok := ParsePlan(name)
		if !ok {
			return nil, errors.Join(ErrLoadingPricesFile,
				fmt.Errorf("%w: %q for price %s", ErrInvalidPlan, name, priceID))
		}
		prices[priceID] = plan
	}
	return prices, nil
}
