package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/solarswarm/core/metrics"
	"github.com/kilianp07/solarswarm/core/metrics/community"
)

// CommunitySink turns each finished run into community KPI gauges labelled
// by scenario.
type CommunitySink struct {
	params community.Params
	kpi    *prometheus.GaugeVec
}

// NewCommunitySink registers the KPI gauges on reg.
func NewCommunitySink(params community.Params, reg prometheus.Registerer) (*CommunitySink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	kpi, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "swarm_community_kpi",
		Help: "Community KPIs of the last finished run",
	}, []string{"scenario", "kpi"}))
	if err != nil {
		return nil, err
	}
	return &CommunitySink{params: params, kpi: kpi}, nil
}

func (s *CommunitySink) RecordTick(coremetrics.TickRecord) error { return nil }

// RecordRun computes the KPIs of the run. Runs without consumption are
// skipped.
func (s *CommunitySink) RecordRun(r coremetrics.RunRecord) error {
	k, err := community.Compute(r.Totals(), s.params)
	if err != nil {
		return nil
	}
	values := map[string]float64{
		"self_sufficiency_pct":  k.SelfSufficiencyPct,
		"grid_dependency_pct":   k.GridDependencyPct,
		"solar_utilization_pct": k.SolarUtilizationPct,
		"savings_daily":         k.DailySavings,
		"savings_pct":           k.SavingsPct,
		"co2_avoided_kg":        k.CO2AvoidedKg,
		"trees_equivalent":      k.TreesEquivalent,
	}
	for name, v := range values {
		s.kpi.WithLabelValues(r.Scenario, name).Set(v)
	}
	return nil
}
