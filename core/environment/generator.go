// Package environment produces the exogenous hourly production and
// consumption values injected into agents.
package environment

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// PeakProduction is the noiseless production in kWh at solar noon.
	PeakProduction = 5.0
	// DefaultNoiseStdDev is the standard deviation of production noise.
	DefaultNoiseStdDev = 0.5

	sunrise = 6
	sunset  = 18
)

// Signal is the pair of values injected into one agent for one hour.
type Signal struct {
	Production  float64
	Consumption float64
}

// Generator draws per-agent signals from an injected random source so that a
// fixed seed reproduces a run exactly.
type Generator struct {
	src   rand.Source
	noise distuv.Normal
}

// NewGenerator returns a generator drawing from src. A nil src is seeded from
// the clock. A negative noiseStdDev is treated as zero.
func NewGenerator(src rand.Source, noiseStdDev float64) *Generator {
	if src == nil {
		src = NewSource(uint64(time.Now().UnixNano()))
	}
	if noiseStdDev < 0 {
		noiseStdDev = 0
	}
	return &Generator{
		src:   src,
		noise: distuv.Normal{Mu: 0, Sigma: noiseStdDev, Src: src},
	}
}

// NewSource returns the deterministic source used for seeded runs.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

// Production returns the solar production for hour of day h. Noise is only
// drawn during daylight, and the result never drops below zero.
func (g *Generator) Production(h int) float64 {
	h = HourOfDay(h)
	if h < sunrise || h > sunset {
		return 0
	}
	base := PeakProduction * math.Sin(float64(h-sunrise)*math.Pi/12)
	return math.Max(0, base+g.noise.Rand())
}

// Consumption returns a household consumption draw for hour of day h.
func (g *Generator) Consumption(h int) float64 {
	lo, hi := ConsumptionBand(HourOfDay(h))
	return distuv.Uniform{Min: lo, Max: hi, Src: g.src}.Rand()
}

// Hour draws one signal per agent. Production is drawn before consumption for
// each agent, in agent order.
func (g *Generator) Hour(h, agents int) []Signal {
	out := make([]Signal, agents)
	for i := range out {
		out[i].Production = g.Production(h)
		out[i].Consumption = g.Consumption(h)
	}
	return out
}

// ConsumptionBand returns the [lo, hi) bounds of consumption for hour of day h:
// peak in the morning and evening, moderate at midday, low overnight.
func ConsumptionBand(h int) (lo, hi float64) {
	switch {
	case (h >= 6 && h <= 9) || (h >= 18 && h <= 22):
		return 2, 4
	case h > 9 && h < 18:
		return 1, 2
	default:
		return 0.5, 1
	}
}

// HourOfDay folds a tick index onto [0, 24).
func HourOfDay(tick int) int {
	h := tick % 24
	if h < 0 {
		h += 24
	}
	return h
}
