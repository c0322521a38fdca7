// Package runlog persists finished runs so they can be listed and compared
// after the process exits. Live simulation state is never persisted.
package runlog

import (
	"context"
	"time"

	"github.com/kilianp07/solarswarm/core/swarm"
)

// Record captures one finished run.
type Record struct {
	RunID      string        `json:"run_id"`
	Scenario   string        `json:"scenario"`
	Agents     int           `json:"agents"`
	Hours      int           `json:"hours"`
	Seed       uint64        `json:"seed"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Cancelled  bool          `json:"cancelled"`
	Summary    swarm.Summary `json:"summary"`
	Series     swarm.Series  `json:"series"`
}

// Query defines filters for retrieving records. Zero values match anything.
type Query struct {
	Start    time.Time
	End      time.Time
	Scenario string
	RunID    string
	// Limit keeps only the most recent records when positive.
	Limit int
}

// Store persists Records and supports querying. Results are ordered by
// FinishedAt ascending.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.FinishedAt.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.FinishedAt.After(q.End) {
		return false
	}
	if q.Scenario != "" && r.Scenario != q.Scenario {
		return false
	}
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	return true
}

func (q Query) limit(recs []Record) []Record {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error          { return nil }
func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                   { return nil }
