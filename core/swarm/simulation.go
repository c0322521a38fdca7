// Package swarm drives a community of agents through simulated hours and
// accumulates the community energy flows.
//
// Each hour runs the same phases for every agent: signals are injected, every
// agent broadcasts its status, the broadcasts are delivered, every agent
// decides, and the hour's totals are recorded. No agent receives a message
// before all agents have broadcast. Decisions run in id order and read the
// live needs of neighbors, so a neighbor that already charged this hour is
// seen with its new battery level.
package swarm

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/solarswarm/core/agent"
	"github.com/kilianp07/solarswarm/core/environment"
	"github.com/kilianp07/solarswarm/core/events"
	"github.com/kilianp07/solarswarm/core/metrics"
	"github.com/kilianp07/solarswarm/core/model"
	"github.com/kilianp07/solarswarm/core/topology"
)

// State is the lifecycle position of a Simulation.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Simulation owns the agents, their topology and the results of one run.
type Simulation struct {
	mu      sync.RWMutex
	opts    options
	agents  []*agent.Agent
	state   State
	tick    int
	hours   int
	results *Results
	now     func() time.Time
}

// New builds numAgents agents with the configured battery capacity and wires
// their neighbor relation.
func New(numAgents int, opts ...Option) (*Simulation, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if numAgents <= 0 {
		return nil, fmt.Errorf("agent count %d: %w", numAgents, model.ErrInvalidArgument)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	agents := make([]*agent.Agent, numAgents)
	for i := range agents {
		a, err := agent.New(i, o.capacity, o.policy)
		if err != nil {
			return nil, err
		}
		agents[i] = a
	}
	if err := topology.Build(agents, o.window); err != nil {
		return nil, err
	}
	return &Simulation{
		opts:    o,
		agents:  agents,
		results: NewResults(),
		now:     time.Now,
	}, nil
}

// ID returns the run identifier.
func (s *Simulation) ID() string { return s.opts.runID }

// Scenario returns the scenario label.
func (s *Simulation) Scenario() string { return s.opts.scenario }

// Size returns the number of agents.
func (s *Simulation) Size() int { return len(s.agents) }

func (s *Simulation) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Hour returns the number of completed ticks.
func (s *Simulation) Hour() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tick
}

// Hours returns the horizon of the current or last run.
func (s *Simulation) Hours() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hours
}

// Results returns the live result set. Its accessors return copies.
func (s *Simulation) Results() *Results {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results
}

// Agent returns a snapshot of the agent with the given id.
func (s *Simulation) Agent(id int) (model.AgentSnapshot, error) {
	if id < 0 || id >= len(s.agents) {
		return model.AgentSnapshot{}, fmt.Errorf("agent %d: %w", id, model.ErrNotFound)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agents[id].Snapshot(), nil
}

// Agents returns snapshots of every agent in id order.
func (s *Simulation) Agents() []model.AgentSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.AgentSnapshot, len(s.agents))
	for i, a := range s.agents {
		out[i] = a.Snapshot()
	}
	return out
}

// Modify gives fn exclusive access to the agents before the run starts. It
// is how scenarios alter production, consumption or fail panels.
func (s *Simulation) Modify(fn func([]*agent.Agent) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return fmt.Errorf("modify in state %s: %w", s.state, model.ErrInvalidState)
	}
	return fn(s.agents)
}

// Run executes hours ticks drawing signals from src. A nil src is seeded from
// the clock. The context is checked between ticks; when it is done the run
// stops, the simulation is marked completed and the context error is returned
// together with the partial results.
func (s *Simulation) Run(ctx context.Context, hours int, src rand.Source) (*Results, error) {
	if hours < 0 {
		return nil, fmt.Errorf("hours %d: %w", hours, model.ErrInvalidArgument)
	}
	s.mu.Lock()
	if s.state != StateIdle {
		st := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("run in state %s: %w", st, model.ErrInvalidState)
	}
	s.state = StateRunning
	s.hours = hours
	s.tick = 0
	s.results = NewResults()
	s.mu.Unlock()

	log := s.opts.log
	log.Infof("run %s started: agents=%d hours=%d scenario=%s", s.opts.runID, len(s.agents), hours, s.opts.scenario)
	s.publish(events.RunEvent{RunID: s.opts.runID, State: StateRunning.String(), Agents: len(s.agents), Hours: hours, Time: s.now()})

	gen := environment.NewGenerator(src, s.opts.noise)
	var runErr error
	var production, consumption float64
	for t := 0; t < hours; t++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		rec := s.step(gen, t)
		production += rec.Production
		consumption += rec.Consumption
		if err := s.opts.sink.RecordTick(rec); err != nil {
			log.Errorf("metrics sink tick %d: %v", t, err)
		}
		s.publish(events.TickEvent{
			RunID:      s.opts.runID,
			Tick:       t,
			Hours:      hours,
			SolarUsed:  rec.SolarUsed,
			GridImport: rec.GridImport,
			Shared:     rec.Shared,
			Time:       rec.Time,
		})
	}

	s.mu.Lock()
	s.state = StateCompleted
	ticks := s.tick
	res := s.results
	s.mu.Unlock()

	s.finish(res, ticks, production, consumption, runErr)
	return res, runErr
}

// step runs one tick under the write lock and returns its metrics record.
func (s *Simulation) step(gen *environment.Generator, t int) metrics.TickRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	hod := environment.HourOfDay(t)
	signals := gen.Hour(hod, len(s.agents))
	for i, a := range s.agents {
		pf, cf := a.Factors()
		a.UpdateState(signals[i].Production*pf, signals[i].Consumption*cf)
	}

	msgs := make([]model.Message, len(s.agents))
	for i, a := range s.agents {
		if !s.opts.retainInbox {
			a.ClearInbox()
		}
		msgs[i] = a.Communicate(t)
	}
	for _, a := range s.agents {
		for _, m := range msgs {
			a.Receive(m)
		}
	}

	rec := metrics.TickRecord{
		RunID:     s.opts.runID,
		Tick:      t,
		HourOfDay: hod,
		Actions:   make(map[string]int, 4),
		Time:      s.now(),
	}
	var battery float64
	for _, a := range s.agents {
		d := a.Decide()
		p, c := a.Production(), a.Consumption()
		rec.Production += p
		rec.Consumption += c
		rec.SolarUsed += min(p, c)
		rec.GridImport += max(0, c-p)
		if d.Action == model.ActionShareEnergy {
			rec.Shared += d.Amount
		}
		rec.Actions[d.Action.String()]++
		battery += a.BatteryLevel() / a.BatteryCapacity()
	}
	rec.AvgBatteryFraction = battery / float64(len(s.agents))

	s.results.Record(rec.SolarUsed, rec.GridImport, rec.Shared)
	s.tick = t + 1

	s.opts.log.Debugw("tick", map[string]any{
		"run_id":      s.opts.runID,
		"tick":        t,
		"hour":        hod,
		"solar_used":  rec.SolarUsed,
		"grid_import": rec.GridImport,
		"shared":      rec.Shared,
		"actions":     rec.Actions,
	})
	return rec
}

func (s *Simulation) finish(res *Results, ticks int, production, consumption float64, runErr error) {
	rr := metrics.RunRecord{
		RunID:            s.opts.runID,
		Scenario:         s.opts.scenario,
		Agents:           len(s.agents),
		Hours:            s.hours,
		Ticks:            ticks,
		TotalProduction:  production,
		TotalConsumption: consumption,
		Cancelled:        runErr != nil,
		Time:             s.now(),
	}
	sum, err := res.Summary()
	rr.TotalSolarUsed = sum.TotalSolarUsed
	rr.TotalGridImport = sum.TotalGridImport
	rr.TotalShared = sum.TotalShared
	if err == nil {
		rr.SolarUtilizationPct = sum.SolarUtilizationPct
	}
	if r, ok := s.opts.sink.(metrics.RunRecorder); ok {
		if err := r.RecordRun(rr); err != nil {
			s.opts.log.Errorf("metrics sink run %s: %v", s.opts.runID, err)
		}
	}
	if runErr != nil {
		s.opts.log.Warnf("run %s stopped after %d of %d hours: %v", s.opts.runID, ticks, s.hours, runErr)
	} else {
		s.opts.log.Infow("run completed", map[string]any{
			"run_id":      s.opts.runID,
			"scenario":    s.opts.scenario,
			"hours":       ticks,
			"solar_used":  sum.TotalSolarUsed,
			"grid_import": sum.TotalGridImport,
			"shared":      sum.TotalShared,
		})
	}
	s.publish(events.RunEvent{
		RunID:  s.opts.runID,
		State:  StateCompleted.String(),
		Agents: len(s.agents),
		Hours:  s.hours,
		Ticks:  ticks,
		Err:    runErr,
		Time:   rr.Time,
	})
}

func (s *Simulation) publish(ev any) {
	if s.opts.bus != nil {
		s.opts.bus.Publish(ev)
	}
}
