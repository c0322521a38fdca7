// Package community derives economic and environmental KPIs from the energy
// totals of a run. The totals are treated as one day of operation.
package community

import (
	"fmt"

	"github.com/kilianp07/solarswarm/core/metrics"
	"github.com/kilianp07/solarswarm/core/model"
)

// Params holds the tariffs and emission figures used by Compute.
type Params struct {
	// GridPrice is the cost of one imported kWh.
	GridPrice float64 `json:"grid_price"`
	// BaselineGridShare is the fraction of consumption a household without
	// the swarm imports from the grid.
	BaselineGridShare float64 `json:"baseline_grid_share"`
	// CO2PerKWh is the grid emission intensity in kg per kWh.
	CO2PerKWh float64 `json:"co2_per_kwh"`
	// TreeKgPerYear is the CO2 one tree absorbs per year.
	TreeKgPerYear float64 `json:"tree_kg_per_year"`
}

// DefaultParams returns the reference tariff and emission figures.
func DefaultParams() Params {
	return Params{GridPrice: 0.15, BaselineGridShare: 0.4, CO2PerKWh: 0.5, TreeKgPerYear: 21}
}

// KPI is the community report.
type KPI struct {
	// SolarUtilizationPct is the share of produced energy consumed on site.
	SolarUtilizationPct  float64 `json:"solar_utilization_pct"`
	SelfSufficiencyPct   float64 `json:"self_sufficiency_pct"`
	GridDependencyPct    float64 `json:"grid_dependency_pct"`
	SharingEfficiencyPct float64 `json:"sharing_efficiency_pct"`
	EnergySharedKWh      float64 `json:"energy_shared_kwh"`

	CostWithSwarm  float64 `json:"cost_with_swarm"`
	CostBaseline   float64 `json:"cost_baseline"`
	DailySavings   float64 `json:"cost_savings_daily"`
	MonthlySavings float64 `json:"cost_savings_monthly"`
	AnnualSavings  float64 `json:"cost_savings_annual"`
	SavingsPct     float64 `json:"savings_pct"`

	CO2AvoidedKg         float64 `json:"co2_avoided_kg"`
	MonthlyCO2AvoidedKg  float64 `json:"monthly_co2_avoided_kg"`
	AnnualCO2AvoidedTons float64 `json:"annual_co2_avoided_tons"`
	TreesEquivalent      float64 `json:"trees_equivalent"`
}

// Compute derives the KPIs from totals. It returns ErrUndefinedMetric when
// nothing was consumed or the baseline cost is zero. Percentages relative to
// production are zero when nothing was produced.
func Compute(t metrics.Totals, p Params) (KPI, error) {
	if t.Consumption <= 0 {
		return KPI{}, fmt.Errorf("consumption %.3f: %w", t.Consumption, model.ErrUndefinedMetric)
	}
	baselineImport := t.Consumption * p.BaselineGridShare
	costBaseline := baselineImport * p.GridPrice
	if costBaseline <= 0 {
		return KPI{}, fmt.Errorf("baseline cost %.3f: %w", costBaseline, model.ErrUndefinedMetric)
	}

	k := KPI{
		SelfSufficiencyPct: 100 * (t.Consumption - t.GridImport) / t.Consumption,
		GridDependencyPct:  100 * t.GridImport / t.Consumption,
		EnergySharedKWh:    t.Shared,
		CostWithSwarm:      t.GridImport * p.GridPrice,
		CostBaseline:       costBaseline,
	}
	if t.Production > 0 {
		k.SolarUtilizationPct = 100 * t.SolarUsed / t.Production
		k.SharingEfficiencyPct = 100 * t.Shared / t.Production
	}

	k.DailySavings = k.CostBaseline - k.CostWithSwarm
	k.MonthlySavings = k.DailySavings * 30
	k.AnnualSavings = k.DailySavings * 365
	k.SavingsPct = 100 * k.DailySavings / k.CostBaseline

	k.CO2AvoidedKg = (baselineImport - t.GridImport) * p.CO2PerKWh
	k.MonthlyCO2AvoidedKg = k.CO2AvoidedKg * 30
	k.AnnualCO2AvoidedTons = k.CO2AvoidedKg * 365 / 1000
	if p.TreeKgPerYear > 0 {
		k.TreesEquivalent = k.CO2AvoidedKg * 365 / p.TreeKgPerYear
	}
	return k, nil
}
