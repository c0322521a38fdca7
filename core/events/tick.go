package events

import "time"

// TickEvent is published after the aggregation step of every hour.
type TickEvent struct {
	RunID      string
	Tick       int
	Hours      int
	SolarUsed  float64
	GridImport float64
	Shared     float64
	Time       time.Time
}

// Progress returns the completed fraction of the run in [0, 1].
func (e TickEvent) Progress() float64 {
	if e.Hours <= 0 {
		return 1
	}
	return float64(e.Tick+1) / float64(e.Hours)
}
