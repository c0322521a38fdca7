package config

import (
	"errors"
	"fmt"

	"github.com/kilianp07/solarswarm/core/environment"
	"github.com/kilianp07/solarswarm/core/swarm"
	"github.com/kilianp07/solarswarm/core/topology"
)

// SimulationConfig holds the defaults used when a run request leaves a
// field unset.
type SimulationConfig struct {
	Agents          int     `json:"agents"`
	Hours           int     `json:"hours"`
	BatteryCapacity float64 `json:"battery_capacity"`
	NeighborWindow  *int    `json:"neighbor_window"`
	// NoiseStdDev is a pointer so that an explicit 0 disables noise.
	NoiseStdDev *float64 `json:"noise_std_dev"`
	// Seed fixes the random source; 0 seeds from the clock.
	Seed        uint64 `json:"seed"`
	RetainInbox bool   `json:"retain_inbox"`
	Scenario    string `json:"scenario"`
}

func (c *SimulationConfig) SetDefaults() {
	if c.Agents == 0 {
		c.Agents = 50
	}
	if c.Hours == 0 {
		c.Hours = swarm.DefaultHours
	}
	if c.BatteryCapacity == 0 {
		c.BatteryCapacity = swarm.DefaultBatteryCapacity
	}
	if c.NeighborWindow == nil {
		w := topology.DefaultWindow
		c.NeighborWindow = &w
	}
	if c.NoiseStdDev == nil {
		n := environment.DefaultNoiseStdDev
		c.NoiseStdDev = &n
	}
	if c.Scenario == "" {
		c.Scenario = "default"
	}
}

func (c SimulationConfig) Validate() error {
	var errs []error
	if c.Agents <= 0 {
		errs = append(errs, fmt.Errorf("simulation.agents must be positive, got %d", c.Agents))
	}
	if c.Hours < 0 {
		errs = append(errs, fmt.Errorf("simulation.hours must not be negative, got %d", c.Hours))
	}
	if c.BatteryCapacity <= 0 {
		errs = append(errs, fmt.Errorf("simulation.battery_capacity must be positive, got %.3f", c.BatteryCapacity))
	}
	if c.NeighborWindow != nil && *c.NeighborWindow < 0 {
		errs = append(errs, fmt.Errorf("simulation.neighbor_window must not be negative, got %d", *c.NeighborWindow))
	}
	if c.NoiseStdDev != nil && *c.NoiseStdDev < 0 {
		errs = append(errs, fmt.Errorf("simulation.noise_std_dev must not be negative, got %.3f", *c.NoiseStdDev))
	}
	return errors.Join(errs...)
}

// Window returns the neighbor window, or the default when unset.
func (c SimulationConfig) Window() int {
	if c.NeighborWindow == nil {
		return topology.DefaultWindow
	}
	return *c.NeighborWindow
}

// Noise returns the noise standard deviation, or the default when unset.
func (c SimulationConfig) Noise() float64 {
	if c.NoiseStdDev == nil {
		return environment.DefaultNoiseStdDev
	}
	return *c.NoiseStdDev
}
