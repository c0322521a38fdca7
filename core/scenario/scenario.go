// Package scenario alters a community before a run: production and
// consumption multipliers and failed panels. Factors persist on the agents
// and scale every signal injected during the run.
package scenario

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/kilianp07/solarswarm/core/agent"
	"github.com/kilianp07/solarswarm/core/model"
)

// Preset names.
const (
	Default      = "default"
	CloudyDay    = "cloudy_day"
	PanelFailure = "panel_failure"
	PeakDemand   = "peak_demand"
	Custom       = "custom"
)

// Scenario describes the modifiers applied to every agent.
type Scenario struct {
	Name              string  `json:"name" yaml:"name"`
	Description       string  `json:"description,omitempty" yaml:"description"`
	ProductionFactor  float64 `json:"production_factor" yaml:"production_factor"`
	ConsumptionFactor float64 `json:"consumption_factor" yaml:"consumption_factor"`
	FailedAgents      int     `json:"failed_agents" yaml:"failed_agents"`
	Hours             int     `json:"hours,omitempty" yaml:"hours"`
}

var presets = map[string]Scenario{
	Default: {
		Name:              Default,
		Description:       "Clear day, unmodified signals",
		ProductionFactor:  1,
		ConsumptionFactor: 1,
	},
	CloudyDay: {
		Name:              CloudyDay,
		Description:       "Overcast sky, production at 30%",
		ProductionFactor:  0.3,
		ConsumptionFactor: 1,
	},
	PanelFailure: {
		Name:              PanelFailure,
		Description:       "Five random installations stop producing",
		ProductionFactor:  1,
		ConsumptionFactor: 1,
		FailedAgents:      5,
	},
	PeakDemand: {
		Name:              PeakDemand,
		Description:       "Heat wave, consumption doubled",
		ProductionFactor:  1,
		ConsumptionFactor: 2,
	},
}

// Preset returns the named preset.
func Preset(name string) (Scenario, error) {
	s, ok := presets[name]
	if !ok {
		return Scenario{}, fmt.Errorf("scenario %q: %w", name, model.ErrNotFound)
	}
	return s, nil
}

// Presets lists the presets sorted by name.
func Presets() []Scenario {
	out := make([]Scenario, 0, len(presets))
	for _, s := range presets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NewCustom returns a scenario with explicit factors.
func NewCustom(production, consumption float64) Scenario {
	return Scenario{Name: Custom, ProductionFactor: production, ConsumptionFactor: consumption}
}

// Validate checks the factors and failure count. A failure count larger than
// the community is only detected by Apply.
func (s Scenario) Validate() error {
	var errs []error
	if s.ProductionFactor < 0 {
		errs = append(errs, fmt.Errorf("production_factor %.3f: %w", s.ProductionFactor, model.ErrInvalidArgument))
	}
	if s.ConsumptionFactor < 0 {
		errs = append(errs, fmt.Errorf("consumption_factor %.3f: %w", s.ConsumptionFactor, model.ErrInvalidArgument))
	}
	if s.FailedAgents < 0 {
		errs = append(errs, fmt.Errorf("failed_agents %d: %w", s.FailedAgents, model.ErrInvalidArgument))
	}
	if s.Hours < 0 {
		errs = append(errs, fmt.Errorf("hours %d: %w", s.Hours, model.ErrInvalidArgument))
	}
	return errors.Join(errs...)
}

// Apply scales every agent and fails FailedAgents of them chosen from src.
func (s Scenario) Apply(agents []*agent.Agent, src rand.Source) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := ScaleProduction(agents, s.ProductionFactor); err != nil {
		return err
	}
	if err := ScaleConsumption(agents, s.ConsumptionFactor); err != nil {
		return err
	}
	if s.FailedAgents > 0 {
		if _, err := FailRandom(agents, s.FailedAgents, src); err != nil {
			return err
		}
	}
	return nil
}

// ScaleProduction multiplies the production factor of every agent by f.
func ScaleProduction(agents []*agent.Agent, f float64) error {
	if f < 0 {
		return fmt.Errorf("production factor %.3f: %w", f, model.ErrInvalidArgument)
	}
	for _, a := range agents {
		if err := a.ScaleProduction(f); err != nil {
			return err
		}
	}
	return nil
}

// ScaleConsumption multiplies the consumption factor of every agent by f.
func ScaleConsumption(agents []*agent.Agent, f float64) error {
	if f < 0 {
		return fmt.Errorf("consumption factor %.3f: %w", f, model.ErrInvalidArgument)
	}
	for _, a := range agents {
		if err := a.ScaleConsumption(f); err != nil {
			return err
		}
	}
	return nil
}

// FailRandom fails n distinct agents drawn from src and returns their ids in
// ascending order. A nil src draws from the global generator.
func FailRandom(agents []*agent.Agent, n int, src rand.Source) ([]int, error) {
	if n < 0 || n > len(agents) {
		return nil, fmt.Errorf("fail %d of %d agents: %w", n, len(agents), model.ErrInvalidArgument)
	}
	var perm []int
	if src == nil {
		perm = rand.Perm(len(agents))
	} else {
		perm = rand.New(src).Perm(len(agents))
	}
	ids := make([]int, 0, n)
	for _, i := range perm[:n] {
		agents[i].Fail()
		ids = append(ids, agents[i].ID())
	}
	slices.Sort(ids)
	return ids, nil
}
