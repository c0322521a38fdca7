// Package agent implements a residential solar producer that decides each
// hour whether to charge, request, share or sell energy.
package agent

import (
	"fmt"

	"github.com/kilianp07/solarswarm/core/model"
)

// Agent holds the energy state of one household. It is not safe for
// concurrent use; the swarm orchestrator serializes access.
type Agent struct {
	id          int
	capacity    float64
	level       float64
	production  float64
	consumption float64

	productionFactor  float64
	consumptionFactor float64
	failed            bool

	neighbors []*Agent
	inbox     []model.Message
	policy    Policy
	last      *model.Decision
}

// New creates an agent with a battery charged to InitialLevel. A nil policy
// selects DefaultPolicy.
func New(id int, capacity float64, policy Policy) (*Agent, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("battery capacity %.3f: %w", capacity, model.ErrInvalidArgument)
	}
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Agent{
		id:                id,
		capacity:          capacity,
		level:             InitialLevel * capacity,
		productionFactor:  1,
		consumptionFactor: 1,
		policy:            policy,
	}, nil
}

func (a *Agent) ID() int                       { return a.id }
func (a *Agent) BatteryCapacity() float64      { return a.capacity }
func (a *Agent) BatteryLevel() float64         { return a.level }
func (a *Agent) Production() float64           { return a.production }
func (a *Agent) Consumption() float64          { return a.consumption }
func (a *Agent) Neighbors() []*Agent           { return a.neighbors }
func (a *Agent) LastDecision() *model.Decision { return a.last }

// SetNeighbors replaces the neighbor list. It is called once by the topology
// builder.
func (a *Agent) SetNeighbors(n []*Agent) { a.neighbors = n }

// SetBatteryLevel overrides the battery level. The level must lie within
// [0, capacity].
func (a *Agent) SetBatteryLevel(level float64) error {
	if level < 0 || level > a.capacity {
		return fmt.Errorf("battery level %.3f outside [0, %.3f]: %w", level, a.capacity, model.ErrInvalidArgument)
	}
	a.level = level
	return nil
}

// UpdateState sets production and consumption for the current hour.
// Callers guarantee non-negative values.
func (a *Agent) UpdateState(production, consumption float64) {
	a.production = production
	a.consumption = consumption
}

// State returns the read-only view handed to policies.
func (a *Agent) State() State {
	return State{
		ID:              a.id,
		BatteryLevel:    a.level,
		BatteryCapacity: a.capacity,
		Production:      a.production,
		Consumption:     a.consumption,
	}
}

// Excess returns the energy available for export this hour.
func (a *Agent) Excess() float64 { return a.State().Excess() }

// Needs returns the energy deficit to cover this hour.
func (a *Agent) Needs() float64 { return a.State().Needs() }

// Decide evaluates the agent policy and applies charge decisions to the
// battery immediately.
func (a *Agent) Decide() model.Decision {
	view := make([]Neighbor, len(a.neighbors))
	for i, n := range a.neighbors {
		view[i] = n
	}
	d := a.policy.Decide(a.State(), view)
	if d.Action == model.ActionChargeBattery {
		a.level += d.Amount
		a.checkBattery()
	}
	a.last = &d
	return d
}

// Communicate renders the hourly status broadcast.
func (a *Agent) Communicate(hour int) model.Message {
	s := a.State()
	return model.Message{
		SenderID:        a.id,
		BatteryFraction: s.Fraction(),
		Excess:          s.Excess(),
		Needs:           s.Needs(),
		Hour:            hour,
	}
}

// Receive appends a broadcast to the inbox. Own broadcasts are dropped.
func (a *Agent) Receive(msg model.Message) {
	if msg.SenderID == a.id {
		return
	}
	a.inbox = append(a.inbox, msg)
}

// Inbox returns a copy of the received messages.
func (a *Agent) Inbox() []model.Message {
	out := make([]model.Message, len(a.inbox))
	copy(out, a.inbox)
	return out
}

// ClearInbox drops all received messages.
func (a *Agent) ClearInbox() { a.inbox = a.inbox[:0] }

// Factors returns the scenario multipliers applied to injected signals.
func (a *Agent) Factors() (production, consumption float64) {
	if a.failed {
		return 0, a.consumptionFactor
	}
	return a.productionFactor, a.consumptionFactor
}

// ScaleProduction multiplies the production factor by f.
func (a *Agent) ScaleProduction(f float64) error {
	if f < 0 {
		return fmt.Errorf("production factor %.3f: %w", f, model.ErrInvalidArgument)
	}
	a.productionFactor *= f
	return nil
}

// ScaleConsumption multiplies the consumption factor by f.
func (a *Agent) ScaleConsumption(f float64) error {
	if f < 0 {
		return fmt.Errorf("consumption factor %.3f: %w", f, model.ErrInvalidArgument)
	}
	a.consumptionFactor *= f
	return nil
}

// Fail forces production to zero for the rest of the run.
func (a *Agent) Fail() {
	a.failed = true
	a.production = 0
}

// Failed reports whether the agent's panels are down.
func (a *Agent) Failed() bool { return a.failed }

// Snapshot returns a copy of the agent state.
func (a *Agent) Snapshot() model.AgentSnapshot {
	ids := make([]int, len(a.neighbors))
	for i, n := range a.neighbors {
		ids[i] = n.id
	}
	var last *model.Decision
	if a.last != nil {
		d := *a.last
		last = &d
	}
	return model.AgentSnapshot{
		ID:                a.id,
		BatteryLevel:      a.level,
		BatteryCapacity:   a.capacity,
		Production:        a.production,
		Consumption:       a.consumption,
		NeighborIDs:       ids,
		ProductionFactor:  a.productionFactor,
		ConsumptionFactor: a.consumptionFactor,
		Failed:            a.failed,
		LastDecision:      last,
	}
}

// checkBattery panics when the battery leaves [0, capacity]; that can only
// happen through a faulty policy.
func (a *Agent) checkBattery() {
	if a.level < 0 || a.level > a.capacity {
		panic(fmt.Sprintf("agent %d: battery level %.6f outside [0, %.6f]", a.id, a.level, a.capacity))
	}
}
