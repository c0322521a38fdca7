package events

import "time"

// RunEvent is published when a run starts and when it completes. Err is set
// when the run stopped before its horizon.
type RunEvent struct {
	RunID  string
	State  string
	Agents int
	Hours  int
	Ticks  int
	Err    error
	Time   time.Time
}
