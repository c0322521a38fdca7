package environment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratorDeterministic(t *testing.T) {
	g1 := NewGenerator(NewSource(42), DefaultNoiseStdDev)
	g2 := NewGenerator(NewSource(42), DefaultNoiseStdDev)
	for h := 0; h < 48; h++ {
		assert.Equal(t, g1.Hour(h, 5), g2.Hour(h, 5), "hour %d", h)
	}
}

func TestProductionOutsideDaylightIsZero(t *testing.T) {
	g := NewGenerator(NewSource(1), DefaultNoiseStdDev)
	for _, h := range []int{0, 3, 5, 19, 23, 24 + 2} {
		assert.Equal(t, 0.0, g.Production(h), "hour %d", h)
	}
}

func TestProductionNeverNegative(t *testing.T) {
	g := NewGenerator(NewSource(7), 3)
	for i := 0; i < 2000; i++ {
		assert.GreaterOrEqual(t, g.Production(6+i%13), 0.0)
	}
}

func TestProductionWithoutNoise(t *testing.T) {
	g := NewGenerator(NewSource(7), 0)
	assert.InDelta(t, PeakProduction, g.Production(12), 1e-9)
	assert.InDelta(t, 0.0, g.Production(6), 1e-9)
	assert.InDelta(t, PeakProduction*math.Sin(math.Pi/4), g.Production(9), 1e-9)
	assert.InDelta(t, 0.0, g.Production(18), 1e-9)
}

func TestConsumptionBands(t *testing.T) {
	g := NewGenerator(NewSource(3), DefaultNoiseStdDev)
	for h := 0; h < 24; h++ {
		lo, hi := ConsumptionBand(h)
		for i := 0; i < 50; i++ {
			c := g.Consumption(h)
			assert.GreaterOrEqual(t, c, lo, "hour %d", h)
			assert.Less(t, c, hi, "hour %d", h)
		}
	}
	lo, hi := ConsumptionBand(7)
	assert.Equal(t, [2]float64{2, 4}, [2]float64{lo, hi})
	lo, hi = ConsumptionBand(20)
	assert.Equal(t, [2]float64{2, 4}, [2]float64{lo, hi})
	lo, hi = ConsumptionBand(12)
	assert.Equal(t, [2]float64{1, 2}, [2]float64{lo, hi})
	lo, hi = ConsumptionBand(2)
	assert.Equal(t, [2]float64{0.5, 1}, [2]float64{lo, hi})
}

func TestHourOfDay(t *testing.T) {
	assert.Equal(t, 0, HourOfDay(24))
	assert.Equal(t, 5, HourOfDay(53))
	assert.Equal(t, 23, HourOfDay(-1))
}
