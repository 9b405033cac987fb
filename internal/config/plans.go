package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var defaultPlans []byte

// Plan describes a membership plan offered on the signup page.
type Plan struct {
	ID             string `yaml:"id" json:"id"`
	Name           string `yaml:"name" json:"name"`
	Description    string `yaml:"description" json:"description"`
	PriceCents     int64  `yaml:"price_cents" json:"priceCents"`
	Currency       string `yaml:"currency" json:"currency"`
	DurationMonths int    `yaml:"duration_months" json:"durationMonths"`
	Recurring      bool   `yaml:"recurring" json:"recurring"`
	Interval       string `yaml:"interval,omitempty" json:"interval,omitempty"`
	StripePriceID  string `yaml:"stripe_price_id,omitempty" json:"-"`
}

// RequiresPayment reports whether signing up for the plan goes through checkout.
func (p Plan) RequiresPayment() bool {
	return p.PriceCents > 0
}

// PlanCatalog is the ordered list of plans.
type PlanCatalog struct {
	plans []Plan
	byID  map[string]Plan
}

// LoadPlans reads the plan catalogue from path, or the embedded default when path is empty.
// Non-empty entries in prices override each plan's Stripe price id.
func LoadPlans(path string, prices map[string]string) (PlanCatalog, error) {
	data := defaultPlans
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return PlanCatalog{}, fmt.Errorf("failed to read plans file: %w", err)
		}
		data = b
	}
	return ParsePlans(data, prices)
}

// ParsePlans decodes a YAML plan catalogue.
func ParsePlans(data []byte, prices map[string]string) (PlanCatalog, error) {
	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return PlanCatalog{}, fmt.Errorf("failed to parse plans: %w", err)
	}
	if len(doc.Plans) == 0 {
		return PlanCatalog{}, errors.New("plan catalogue is empty")
	}

	catalog := PlanCatalog{byID: make(map[string]Plan, len(doc.Plans))}
	for _, p := range doc.Plans {
		if p.ID == "" {
			return PlanCatalog{}, errors.New("plan without id")
		}
		if _, dup := catalog.byID[p.ID]; dup {
			return PlanCatalog{}, fmt.Errorf("duplicate plan %q", p.ID)
		}
		if p.DurationMonths <= 0 {
			return PlanCatalog{}, fmt.Errorf("plan %q must have a positive duration", p.ID)
		}
		if p.Currency == "" {
			p.Currency = "cad"
		}
		if price := prices[p.ID]; price != "" {
			p.StripePriceID = price
		}
		catalog.plans = append(catalog.plans, p)
		catalog.byID[p.ID] = p
	}
	return catalog, nil
}

// Get returns the plan with the given id.
func (c PlanCatalog) Get(id string) (Plan, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// All returns the plans in catalogue order.
func (c PlanCatalog) All() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}
