package community

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/solarswarm/core/metrics"
	"github.com/kilianp07/solarswarm/core/model"
)

func TestCompute(t *testing.T) {
	totals := metrics.Totals{Production: 200, Consumption: 100, SolarUsed: 80, GridImport: 20, Shared: 10}
	k, err := Compute(totals, DefaultParams())
	require.NoError(t, err)

	assert.InDelta(t, 40.0, k.SolarUtilizationPct, 1e-9)
	assert.InDelta(t, 80.0, k.SelfSufficiencyPct, 1e-9)
	assert.InDelta(t, 20.0, k.GridDependencyPct, 1e-9)
	assert.InDelta(t, 5.0, k.SharingEfficiencyPct, 1e-9)
	assert.Equal(t, 10.0, k.EnergySharedKWh)

	// baseline imports 40 kWh, the swarm 20 kWh
	assert.InDelta(t, 3.0, k.CostWithSwarm, 1e-9)
	assert.InDelta(t, 6.0, k.CostBaseline, 1e-9)
	assert.InDelta(t, 3.0, k.DailySavings, 1e-9)
	assert.InDelta(t, 90.0, k.MonthlySavings, 1e-9)
	assert.InDelta(t, 1095.0, k.AnnualSavings, 1e-9)
	assert.InDelta(t, 50.0, k.SavingsPct, 1e-9)

	assert.InDelta(t, 10.0, k.CO2AvoidedKg, 1e-9)
	assert.InDelta(t, 300.0, k.MonthlyCO2AvoidedKg, 1e-9)
	assert.InDelta(t, 3.65, k.AnnualCO2AvoidedTons, 1e-9)
	assert.InDelta(t, 3650.0/21, k.TreesEquivalent, 1e-9)
}

func TestComputeNegativeSavings(t *testing.T) {
	k, err := Compute(metrics.Totals{Consumption: 10, GridImport: 10}, DefaultParams())
	require.NoError(t, err)
	assert.Less(t, k.DailySavings, 0.0)
	assert.Less(t, k.CO2AvoidedKg, 0.0)
	assert.Equal(t, 0.0, k.SolarUtilizationPct)
}

func TestComputeUndefined(t *testing.T) {
	_, err := Compute(metrics.Totals{}, DefaultParams())
	assert.ErrorIs(t, err, model.ErrUndefinedMetric)

	p := DefaultParams()
	p.GridPrice = 0
	_, err = Compute(metrics.Totals{Consumption: 5}, p)
	assert.ErrorIs(t, err, model.ErrUndefinedMetric)
}
