package swarm

import (
	"encoding/json"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/solarswarm/core/model"
)

// Results accumulates community totals, one entry per executed hour. It is
// safe for concurrent readers while a run appends to it.
type Results struct {
	mu         sync.RWMutex
	solarUsed  []float64
	gridImport []float64
	shared     []float64
}

// Summary condenses a result series.
type Summary struct {
	Hours               int     `json:"hours"`
	TotalSolarUsed      float64 `json:"total_solar_used"`
	TotalGridImport     float64 `json:"total_grid_import"`
	TotalShared         float64 `json:"total_shared"`
	SolarUtilizationPct float64 `json:"solar_utilization_pct"`
	GridImportPct       float64 `json:"grid_import_pct"`
	// TransferHours counts hours in which at least one share happened.
	TransferHours int `json:"transfer_hours"`
}

// Series is the exported form of Results.
type Series struct {
	SolarUsed    []float64 `json:"solar_used"`
	GridImport   []float64 `json:"grid_import"`
	SharedEnergy []float64 `json:"shared_energy"`
}

// NewResults returns an empty result set.
func NewResults() *Results {
	return &Results{}
}

// ResultsFromSeries rebuilds Results from an exported series, for instance one
// read back from the run log. The three slices must have the same length.
func ResultsFromSeries(s Series) (*Results, error) {
	n := len(s.SolarUsed)
	if len(s.GridImport) != n || len(s.SharedEnergy) != n {
		return nil, fmt.Errorf("series lengths %d/%d/%d: %w",
			n, len(s.GridImport), len(s.SharedEnergy), model.ErrInvalidArgument)
	}
	r := NewResults()
	for i := 0; i < n; i++ {
		r.Record(s.SolarUsed[i], s.GridImport[i], s.SharedEnergy[i])
	}
	return r, nil
}

// Record appends the totals of one hour.
func (r *Results) Record(solarUsed, gridImport, shared float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.solarUsed = append(r.solarUsed, solarUsed)
	r.gridImport = append(r.gridImport, gridImport)
	r.shared = append(r.shared, shared)
}

// Len returns the number of recorded hours.
func (r *Results) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.solarUsed)
}

func (r *Results) SolarUsed() []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clone(r.solarUsed)
}

func (r *Results) GridImport() []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clone(r.gridImport)
}

func (r *Results) SharedEnergy() []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clone(r.shared)
}

// Series returns a copy of all three sequences.
func (r *Results) Series() Series {
	return r.Last(0)
}

// Last returns the final n entries of each sequence. n <= 0 or n larger than
// the series returns everything.
func (r *Results) Last(n int) Series {
	r.mu.RLock()
	defer r.mu.RUnlock()
	from := 0
	if n > 0 && n < len(r.solarUsed) {
		from = len(r.solarUsed) - n
	}
	return Series{
		SolarUsed:    clone(r.solarUsed[from:]),
		GridImport:   clone(r.gridImport[from:]),
		SharedEnergy: clone(r.shared[from:]),
	}
}

// Summary totals the series. It returns ErrUndefinedMetric when no energy was
// consumed, since the percentages have no denominator.
func (r *Results) Summary() (Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Summary{
		Hours:           len(r.solarUsed),
		TotalSolarUsed:  floats.Sum(r.solarUsed),
		TotalGridImport: floats.Sum(r.gridImport),
		TotalShared:     floats.Sum(r.shared),
	}
	for _, v := range r.shared {
		if v > 0 {
			s.TransferHours++
		}
	}
	den := s.TotalSolarUsed + s.TotalGridImport
	if den == 0 {
		return s, fmt.Errorf("solar utilization over %d hours: %w", s.Hours, model.ErrUndefinedMetric)
	}
	s.SolarUtilizationPct = 100 * s.TotalSolarUsed / den
	s.GridImportPct = 100 * s.TotalGridImport / den
	return s, nil
}

func (r *Results) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Series())
}

func (r *Results) UnmarshalJSON(data []byte) error {
	var s Series
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	rebuilt, err := ResultsFromSeries(s)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.solarUsed, r.gridImport, r.shared = rebuilt.solarUsed, rebuilt.gridImport, rebuilt.shared
	return nil
}

func clone(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
