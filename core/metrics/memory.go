package metrics

import "sync"

// Totals sums tick records.
type Totals struct {
	Ticks       int     `json:"ticks"`
	Production  float64 `json:"production"`
	Consumption float64 `json:"consumption"`
	SolarUsed   float64 `json:"solar_used"`
	GridImport  float64 `json:"grid_import"`
	Shared      float64 `json:"shared"`
}

// MemorySink keeps tick records in memory. The session uses it to derive
// community KPIs and the CLI to print them.
type MemorySink struct {
	mu    sync.Mutex
	ticks []TickRecord
	runs  []RunRecord
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink { return &MemorySink{} }

func (m *MemorySink) RecordTick(rec TickRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks = append(m.ticks, rec)
	return nil
}

func (m *MemorySink) RecordRun(rec RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, rec)
	return nil
}

// Ticks returns a copy of the recorded ticks.
func (m *MemorySink) Ticks() []TickRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TickRecord, len(m.ticks))
	copy(out, m.ticks)
	return out
}

// Runs returns a copy of the recorded run summaries.
func (m *MemorySink) Runs() []RunRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RunRecord, len(m.runs))
	copy(out, m.runs)
	return out
}

// Totals sums every recorded tick.
func (m *MemorySink) Totals() Totals {
	m.mu.Lock()
	defer m.mu.Unlock()
	var t Totals
	for _, r := range m.ticks {
		t.Ticks++
		t.Production += r.Production
		t.Consumption += r.Consumption
		t.SolarUsed += r.SolarUsed
		t.GridImport += r.GridImport
		t.Shared += r.Shared
	}
	return t
}
