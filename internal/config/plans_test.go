package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPlansDefault(t *testing.T) {
	catalog, err := LoadPlans("", map[string]string{"monthly": "price_monthly", "yearly": ""})
	require.NoError(t, err)

	plans := catalog.All()
	require.Len(t, plans, 4)
	assert.Equal(t, []string{"monthly", "yearly", "student", "free"},
		[]string{plans[0].ID, plans[1].ID, plans[2].ID, plans[3].ID})

	monthly, ok := catalog.Get("monthly")
	require.True(t, ok)
	assert.Equal(t, "price_monthly", monthly.StripePriceID)
	assert.True(t, monthly.Recurring)
	assert.True(t, monthly.RequiresPayment())

	free, ok := catalog.Get("free")
	require.True(t, ok)
	assert.False(t, free.RequiresPayment())
	assert.Equal(t, 12, free.DurationMonths)

	_, ok = catalog.Get("lifetime")
	assert.False(t, ok)
}

func TestLoadPlansFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
plans:
  - id: gold
    name: Gold
    price_cents: 10000
    duration_months: 12
`), 0o600))

	catalog, err := LoadPlans(path, nil)
	require.NoError(t, err)
	gold, ok := catalog.Get("gold")
	require.True(t, ok)
	assert.Equal(t, "cad", gold.Currency, "currency defaults to cad")
}

func TestParsePlansRejectsBadCatalogues(t *testing.T) {
	tests := map[string]string{
		"empty":     "plans: []",
		"no id":     "plans:\n  - name: x\n    duration_months: 1\n",
		"duplicate": "plans:\n  - id: a\n    duration_months: 1\n  - id: a\n    duration_months: 1\n",
		"duration":  "plans:\n  - id: a\n    duration_months: 0\n",
		"syntax":    "plans: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePlans([]byte(doc), nil)
			assert.Error(t, err)
		})
	}
}
