package agent

import (
	"math"

	"github.com/kilianp07/solarswarm/core/model"
)

// Battery thresholds expressed as fractions of capacity.
const (
	ExportReserve = 0.7 // excess is only exported above this level
	LowReserve    = 0.3 // below this level the agent asks for a refill
	RefillTarget  = 0.5 // level a refill aims for
	StoreCeiling  = 0.9 // surplus is stored up to this level
	InitialLevel  = 0.5 // level at creation
)

// ShareThreshold is the minimum excess in kWh before an agent offers energy
// to its neighbors.
const ShareThreshold = 2.0

// State is the read-only view of an agent evaluated by policies.
type State struct {
	ID              int
	BatteryLevel    float64
	BatteryCapacity float64
	Production      float64
	Consumption     float64
}

// Net returns production minus consumption for the current hour.
func (s State) Net() float64 { return s.Production - s.Consumption }

// Excess returns the energy the agent can safely export this hour. It is zero
// unless there is a surplus and the battery is above the export reserve.
func (s State) Excess() float64 {
	net := s.Net()
	if net > 0 && s.BatteryLevel > ExportReserve*s.BatteryCapacity {
		return net
	}
	return 0
}

// Needs returns the energy the agent has to cover this hour: the consumption
// shortfall, or the refill amount when the battery is below the low reserve.
func (s State) Needs() float64 {
	net := s.Net()
	if net < 0 {
		return math.Abs(net)
	}
	if s.BatteryLevel < LowReserve*s.BatteryCapacity {
		return RefillTarget*s.BatteryCapacity - s.BatteryLevel
	}
	return 0
}

// Fraction returns the battery level as a fraction of capacity.
func (s State) Fraction() float64 {
	if s.BatteryCapacity == 0 {
		return 0
	}
	return s.BatteryLevel / s.BatteryCapacity
}

// Neighbor is what a policy may observe of an adjacent agent.
type Neighbor interface {
	ID() int
	Needs() float64
}

// Policy chooses exactly one decision for an agent and hour. Implementations
// must not mutate the agent; charge decisions are applied by the agent itself.
// A learned policy plugs in here.
type Policy interface {
	Decide(s State, neighbors []Neighbor) model.Decision
}

// Rule yields a decision when it applies to the state, or false to let the
// next rule in the chain run.
type Rule func(s State, neighbors []Neighbor) (model.Decision, bool)

// RuleChain evaluates rules in order and returns the first decision produced.
// An exhausted chain sells the current excess to the grid.
type RuleChain []Rule

// Decide implements Policy.
func (c RuleChain) Decide(s State, neighbors []Neighbor) model.Decision {
	for _, r := range c {
		if d, ok := r(s, neighbors); ok {
			return d
		}
	}
	return model.Sell(s.Excess())
}

// DefaultPolicy returns the rule-based priority chain:
// self-need, share, store, export.
func DefaultPolicy() RuleChain {
	return RuleChain{SelfNeedRule, ShareRule, StoreRule, ExportRule}
}

// SelfNeedRule covers the agent's own needs first. A surplus charges the
// battery by at most the surplus; otherwise energy is requested.
func SelfNeedRule(s State, _ []Neighbor) (model.Decision, bool) {
	needs := s.Needs()
	if needs <= 0 {
		return model.Decision{}, false
	}
	if s.Production > s.Consumption {
		return model.Charge(math.Min(needs, s.Net())), true
	}
	return model.Request(needs), true
}

// ShareRule offers the excess to the first neighbor, in stored order, that
// currently needs energy. It does not apply when no neighbor needs anything.
func ShareRule(s State, neighbors []Neighbor) (model.Decision, bool) {
	excess := s.Excess()
	if excess <= ShareThreshold {
		return model.Decision{}, false
	}
	for _, n := range neighbors {
		if needs := n.Needs(); needs > 0 {
			return model.Share(n.ID(), math.Min(excess, needs)), true
		}
	}
	return model.Decision{}, false
}

// StoreRule charges the battery with the excess up to the store ceiling.
func StoreRule(s State, _ []Neighbor) (model.Decision, bool) {
	ceiling := StoreCeiling * s.BatteryCapacity
	if s.BatteryLevel >= ceiling {
		return model.Decision{}, false
	}
	return model.Charge(math.Min(s.Excess(), ceiling-s.BatteryLevel)), true
}

// ExportRule sells the excess to the grid. It always applies.
func ExportRule(s State, _ []Neighbor) (model.Decision, bool) {
	return model.Sell(s.Excess()), true
}
