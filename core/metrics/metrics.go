package metrics

import "time"

// TickRecord holds the community totals of one simulated hour.
type TickRecord struct {
	RunID       string
	Tick        int
	HourOfDay   int
	SolarUsed   float64
	GridImport  float64
	Shared      float64
	Production  float64
	Consumption float64
	// Actions counts decisions by action name.
	Actions map[string]int
	// AvgBatteryFraction is the mean state of charge after decisions.
	AvgBatteryFraction float64
	Time               time.Time
}

// RunRecord summarises a finished run.
type RunRecord struct {
	RunID               string
	Scenario            string
	Agents              int
	Hours               int
	Ticks               int
	TotalProduction     float64
	TotalConsumption    float64
	TotalSolarUsed      float64
	TotalGridImport     float64
	TotalShared         float64
	SolarUtilizationPct float64
	Cancelled           bool
	Time                time.Time
}

// Totals returns the energy totals of the run.
func (r RunRecord) Totals() Totals {
	return Totals{
		Ticks:       r.Ticks,
		Production:  r.TotalProduction,
		Consumption: r.TotalConsumption,
		SolarUsed:   r.TotalSolarUsed,
		GridImport:  r.TotalGridImport,
		Shared:      r.TotalShared,
	}
}

// MetricsSink records hourly totals for observability purposes.
type MetricsSink interface {
	RecordTick(rec TickRecord) error
}

// RunRecorder is implemented by sinks able to record run summaries.
type RunRecorder interface {
	RecordRun(rec RunRecord) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordTick(TickRecord) error { return nil }
func (NopSink) RecordRun(RunRecord) error   { return nil }
