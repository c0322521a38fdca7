package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/solarswarm/core/metrics"
)

// PromSink exposes hourly community flows as Prometheus metrics.
type PromSink struct {
	hourly    *prometheus.GaugeVec
	energy    *prometheus.CounterVec
	decisions *prometheus.CounterVec
	battery   prometheus.Gauge
	ticks     prometheus.Counter
	runs      *prometheus.CounterVec
}

// NewPromSink registers swarm metrics on the default Prometheus registerer.
// The HTTP endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	hourly, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "swarm_hour_energy_kwh",
		Help: "Community energy flow of the last simulated hour",
	}, []string{"flow"}))
	if err != nil {
		return nil, err
	}
	energy, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swarm_energy_kwh_total",
		Help: "Cumulative community energy flows",
	}, []string{"flow"}))
	if err != nil {
		return nil, err
	}
	decisions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swarm_decisions_total",
		Help: "Agent decisions by action",
	}, []string{"action"}))
	if err != nil {
		return nil, err
	}
	battery, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "swarm_battery_fraction",
		Help: "Mean state of charge across agents after the last hour",
	}))
	if err != nil {
		return nil, err
	}
	ticks, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "swarm_ticks_total",
		Help: "Simulated hours executed",
	}))
	if err != nil {
		return nil, err
	}
	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swarm_runs_total",
		Help: "Finished runs by scenario",
	}, []string{"scenario", "cancelled"}))
	if err != nil {
		return nil, err
	}
	return &PromSink{hourly: hourly, energy: energy, decisions: decisions, battery: battery, ticks: ticks, runs: runs}, nil
}

// register adds c to reg, returning the existing collector when an identical
// one is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// RecordTick updates hourly gauges and cumulative counters.
func (s *PromSink) RecordTick(r coremetrics.TickRecord) error {
	flows := map[string]float64{
		"production":  r.Production,
		"consumption": r.Consumption,
		"solar_used":  r.SolarUsed,
		"grid_import": r.GridImport,
		"shared":      r.Shared,
	}
	for flow, v := range flows {
		s.hourly.WithLabelValues(flow).Set(v)
		s.energy.WithLabelValues(flow).Add(v)
	}
	for action, n := range r.Actions {
		s.decisions.WithLabelValues(action).Add(float64(n))
	}
	s.battery.Set(r.AvgBatteryFraction)
	s.ticks.Inc()
	return nil
}

// RecordRun counts the finished run.
func (s *PromSink) RecordRun(r coremetrics.RunRecord) error {
	s.runs.WithLabelValues(r.Scenario, strconv.FormatBool(r.Cancelled)).Inc()
	return nil
}
