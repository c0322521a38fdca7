package swarm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/solarswarm/core/agent"
	"github.com/kilianp07/solarswarm/core/environment"
	"github.com/kilianp07/solarswarm/core/events"
	"github.com/kilianp07/solarswarm/core/metrics"
	"github.com/kilianp07/solarswarm/core/model"
	"github.com/kilianp07/solarswarm/internal/eventbus"
)

const eps = 1e-9

type captureSink struct {
	ticks  []metrics.TickRecord
	runs   []metrics.RunRecord
	onTick func(metrics.TickRecord)
}

func (c *captureSink) RecordTick(r metrics.TickRecord) error {
	c.ticks = append(c.ticks, r)
	if c.onTick != nil {
		c.onTick(r)
	}
	return nil
}

func (c *captureSink) RecordRun(r metrics.RunRecord) error {
	c.runs = append(c.runs, r)
	return nil
}

// checkingPolicy wraps the default chain and asserts per-decision bounds.
type checkingPolicy struct {
	t      *testing.T
	inner  agent.Policy
	shares int
}

func (c *checkingPolicy) Decide(s agent.State, ns []agent.Neighbor) model.Decision {
	assert.GreaterOrEqual(c.t, s.BatteryLevel, 0.0)
	assert.LessOrEqual(c.t, s.BatteryLevel, s.BatteryCapacity)
	d := c.inner.Decide(s, ns)
	if d.Action == model.ActionShareEnergy {
		c.shares++
		assert.Greater(c.t, d.Amount, 0.0)
		assert.LessOrEqual(c.t, d.Amount, s.Excess()+eps)
		found := false
		for _, n := range ns {
			if n.ID() == d.Target {
				found = true
				assert.LessOrEqual(c.t, d.Amount, n.Needs()+eps)
			}
		}
		assert.True(c.t, found, "share target %d is not a neighbor", d.Target)
	}
	return d
}

// fixedShare always shares a constant amount with its first neighbor.
type fixedShare float64

func (f fixedShare) Decide(_ agent.State, ns []agent.Neighbor) model.Decision {
	return model.Share(ns[0].ID(), float64(f))
}

func TestNewRejectsInvalidArguments(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = New(-3)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = New(5, WithBatteryCapacity(0))
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = New(5, WithBatteryCapacity(-1))
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = New(5, WithNeighborWindow(-1))
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestRunRecordsOneEntryPerHour(t *testing.T) {
	sim, err := New(10)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, sim.State())

	res, err := sim.Run(context.Background(), DefaultHours, environment.NewSource(1))
	require.NoError(t, err)
	assert.Equal(t, DefaultHours, res.Len())
	assert.Len(t, res.SolarUsed(), DefaultHours)
	assert.Len(t, res.GridImport(), DefaultHours)
	assert.Len(t, res.SharedEnergy(), DefaultHours)
	assert.Equal(t, StateCompleted, sim.State())
	assert.Equal(t, DefaultHours, sim.Hour())
	assert.Equal(t, DefaultHours, sim.Hours())
	assert.Same(t, res, sim.Results())
}

func TestRunAccountingIdentity(t *testing.T) {
	sink := &captureSink{}
	sim, err := New(25, WithMetrics(sink))
	require.NoError(t, err)
	res, err := sim.Run(context.Background(), 48, environment.NewSource(9))
	require.NoError(t, err)

	require.Len(t, sink.ticks, 48)
	solar, grid := res.SolarUsed(), res.GridImport()
	for i, rec := range sink.ticks {
		assert.Equal(t, i, rec.Tick)
		assert.Equal(t, i%24, rec.HourOfDay)
		assert.InDelta(t, rec.Consumption, rec.SolarUsed+rec.GridImport, eps, "tick %d", i)
		assert.Equal(t, solar[i], rec.SolarUsed)
		assert.Equal(t, grid[i], rec.GridImport)
		total := 0
		for _, n := range rec.Actions {
			total += n
		}
		assert.Equal(t, 25, total)
		assert.GreaterOrEqual(t, rec.AvgBatteryFraction, 0.0)
		assert.LessOrEqual(t, rec.AvgBatteryFraction, 1.0)
	}
	require.Len(t, sink.runs, 1)
	run := sink.runs[0]
	assert.Equal(t, 48, run.Ticks)
	assert.False(t, run.Cancelled)
	assert.Equal(t, sim.ID(), run.RunID)
	assert.InDelta(t, run.TotalConsumption, run.TotalSolarUsed+run.TotalGridImport, 1e-6)
}

func TestRunKeepsDecisionsWithinBounds(t *testing.T) {
	for _, seed := range []uint64{1, 2, 3, 4, 5} {
		p := &checkingPolicy{t: t, inner: agent.DefaultPolicy()}
		sim, err := New(30, WithPolicy(p), WithNoiseStdDev(1.5))
		require.NoError(t, err)
		// alternate failed panels, which always need energy, with nearly
		// full batteries, which export their midday surplus
		require.NoError(t, sim.Modify(func(agents []*agent.Agent) error {
			for i, a := range agents {
				if i%2 == 0 {
					a.Fail()
					continue
				}
				if err := a.SetBatteryLevel(0.95 * a.BatteryCapacity()); err != nil {
					return err
				}
			}
			return nil
		}))
		_, err = sim.Run(context.Background(), 72, environment.NewSource(seed))
		require.NoError(t, err)
		require.Positive(t, p.shares, "seed %d produced no share decisions", seed)
		for _, a := range sim.Agents() {
			assert.GreaterOrEqual(t, a.BatteryLevel, 0.0)
			assert.LessOrEqual(t, a.BatteryLevel, a.BatteryCapacity)
		}
	}
}

func TestRunAggregatesSharedAmounts(t *testing.T) {
	sim, err := New(4, WithPolicy(fixedShare(0.25)))
	require.NoError(t, err)
	res, err := sim.Run(context.Background(), 3, environment.NewSource(2))
	require.NoError(t, err)
	for _, v := range res.SharedEnergy() {
		assert.InDelta(t, 1.0, v, eps)
	}
	sum, err := res.Summary()
	require.NoError(t, err)
	assert.Equal(t, 3, sum.TransferHours)
	assert.InDelta(t, 3.0, sum.TotalShared, eps)
}

func TestRunDeterministicWithSeed(t *testing.T) {
	run := func() ([]byte, []model.AgentSnapshot) {
		sim, err := New(20, WithRunID("fixed"))
		require.NoError(t, err)
		res, err := sim.Run(context.Background(), DefaultHours, environment.NewSource(42))
		require.NoError(t, err)
		b, err := json.Marshal(res)
		require.NoError(t, err)
		return b, sim.Agents()
	}
	b1, a1 := run()
	b2, a2 := run()
	assert.Equal(t, string(b1), string(b2))
	assert.Equal(t, a1, a2)
}

func TestRunOnlyFromIdle(t *testing.T) {
	sim, err := New(3)
	require.NoError(t, err)
	_, err = sim.Run(context.Background(), 2, environment.NewSource(1))
	require.NoError(t, err)
	_, err = sim.Run(context.Background(), 2, environment.NewSource(1))
	assert.ErrorIs(t, err, model.ErrInvalidState)
	err = sim.Modify(func([]*agent.Agent) error { return nil })
	assert.ErrorIs(t, err, model.ErrInvalidState)
}

func TestRunRejectsNegativeHours(t *testing.T) {
	sim, err := New(3)
	require.NoError(t, err)
	_, err = sim.Run(context.Background(), -1, nil)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	assert.Equal(t, StateIdle, sim.State())
}

func TestRunZeroHours(t *testing.T) {
	sim, err := New(3)
	require.NoError(t, err)
	res, err := sim.Run(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Equal(t, StateCompleted, sim.State())
	_, err = res.Summary()
	assert.ErrorIs(t, err, model.ErrUndefinedMetric)
}

func TestAgentLookup(t *testing.T) {
	sim, err := New(5, WithBatteryCapacity(12))
	require.NoError(t, err)
	snap, err := sim.Agent(2)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.ID)
	assert.Equal(t, 12.0, snap.BatteryCapacity)
	assert.Equal(t, 6.0, snap.BatteryLevel)
	assert.Equal(t, []int{0, 1, 3, 4}, snap.NeighborIDs)

	_, err = sim.Agent(5)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = sim.Agent(-1)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Len(t, sim.Agents(), 5)
}

func TestRunCancelledBeforeStart(t *testing.T) {
	sink := &captureSink{}
	sim, err := New(5, WithMetrics(sink))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := sim.Run(ctx, 24, environment.NewSource(1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Len())
	assert.Equal(t, StateCompleted, sim.State())
	require.Len(t, sink.runs, 1)
	assert.True(t, sink.runs[0].Cancelled)
}

func TestRunCancelledBetweenTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &captureSink{onTick: func(r metrics.TickRecord) {
		if r.Tick == 2 {
			cancel()
		}
	}}
	sim, err := New(5, WithMetrics(sink))
	require.NoError(t, err)
	res, err := sim.Run(ctx, 24, environment.NewSource(1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, res.Len())
	assert.Equal(t, 3, sim.Hour())
	assert.Equal(t, StateCompleted, sim.State())
}

func TestInboxClearedEachTick(t *testing.T) {
	sim, err := New(6)
	require.NoError(t, err)
	_, err = sim.Run(context.Background(), 3, environment.NewSource(1))
	require.NoError(t, err)
	for _, a := range sim.agents {
		inbox := a.Inbox()
		require.Len(t, inbox, 5)
		for _, m := range inbox {
			assert.NotEqual(t, a.ID(), m.SenderID)
			assert.Equal(t, 2, m.Hour)
		}
	}
}

func TestInboxRetained(t *testing.T) {
	sim, err := New(6, WithRetainInbox(true))
	require.NoError(t, err)
	_, err = sim.Run(context.Background(), 3, environment.NewSource(1))
	require.NoError(t, err)
	for _, a := range sim.agents {
		inbox := a.Inbox()
		require.Len(t, inbox, 15)
		assert.Equal(t, 0, inbox[0].Hour)
		assert.Equal(t, 2, inbox[14].Hour)
	}
}

func TestModifyAppliesScenarioFactors(t *testing.T) {
	sim, err := New(4)
	require.NoError(t, err)
	require.NoError(t, sim.Modify(func(agents []*agent.Agent) error {
		for _, a := range agents {
			a.Fail()
		}
		return nil
	}))
	res, err := sim.Run(context.Background(), DefaultHours, environment.NewSource(3))
	require.NoError(t, err)
	for _, v := range res.SolarUsed() {
		assert.Equal(t, 0.0, v)
	}
	sum, err := res.Summary()
	require.NoError(t, err)
	assert.Equal(t, 0.0, sum.SolarUtilizationPct)
	assert.Equal(t, 100.0, sum.GridImportPct)
}

func TestRunPublishesEvents(t *testing.T) {
	bus := eventbus.NewTyped[eventbus.Event](64)
	ch := bus.Subscribe()
	sim, err := New(3, WithEventBus(bus), WithRunID("r1"))
	require.NoError(t, err)
	_, err = sim.Run(context.Background(), 4, environment.NewSource(1))
	require.NoError(t, err)
	bus.Close()

	var ticks []events.TickEvent
	var runs []events.RunEvent
	for ev := range ch {
		switch e := ev.(type) {
		case events.TickEvent:
			ticks = append(ticks, e)
		case events.RunEvent:
			runs = append(runs, e)
		}
	}
	require.Len(t, ticks, 4)
	assert.Equal(t, 1.0, ticks[3].Progress())
	require.Len(t, runs, 2)
	assert.Equal(t, "running", runs[0].State)
	assert.Equal(t, "completed", runs[1].State)
	assert.Equal(t, "r1", runs[1].RunID)
	assert.NoError(t, runs[1].Err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "completed", StateCompleted.String())
	assert.Equal(t, "unknown", State(9).String())
}
