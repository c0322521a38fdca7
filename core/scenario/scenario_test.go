package scenario

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/solarswarm/core/agent"
	"github.com/kilianp07/solarswarm/core/environment"
	"github.com/kilianp07/solarswarm/core/model"
)

func community(t *testing.T, n int) []*agent.Agent {
	t.Helper()
	out := make([]*agent.Agent, n)
	for i := range out {
		a, err := agent.New(i, 10, nil)
		require.NoError(t, err)
		out[i] = a
	}
	return out
}

func failedIDs(agents []*agent.Agent) []int {
	var ids []int
	for _, a := range agents {
		if a.Failed() {
			ids = append(ids, a.ID())
		}
	}
	return ids
}

func TestPresets(t *testing.T) {
	s, err := Preset(CloudyDay)
	require.NoError(t, err)
	assert.Equal(t, 0.3, s.ProductionFactor)
	assert.Equal(t, 1.0, s.ConsumptionFactor)

	s, err = Preset(PeakDemand)
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.ConsumptionFactor)

	s, err = Preset(PanelFailure)
	require.NoError(t, err)
	assert.Equal(t, 5, s.FailedAgents)

	_, err = Preset("meteor")
	assert.ErrorIs(t, err, model.ErrNotFound)

	names := []string{}
	for _, p := range Presets() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{CloudyDay, Default, PanelFailure, PeakDemand}, names)
}

func TestApplyScalesEveryAgent(t *testing.T) {
	agents := community(t, 4)
	require.NoError(t, NewCustom(0.5, 1.5).Apply(agents, nil))
	for _, a := range agents {
		p, c := a.Factors()
		assert.Equal(t, 0.5, p)
		assert.Equal(t, 1.5, c)
	}
}

func TestApplyPanelFailure(t *testing.T) {
	agents := community(t, 20)
	s, err := Preset(PanelFailure)
	require.NoError(t, err)
	require.NoError(t, s.Apply(agents, environment.NewSource(4)))
	assert.Len(t, failedIDs(agents), 5)
}

func TestFailRandomDeterministic(t *testing.T) {
	a1, a2 := community(t, 30), community(t, 30)
	ids1, err := FailRandom(a1, 6, environment.NewSource(11))
	require.NoError(t, err)
	ids2, err := FailRandom(a2, 6, environment.NewSource(11))
	require.NoError(t, err)
	assert.Equal(t, ids1, ids2)
	assert.Equal(t, ids1, failedIDs(a1))
	assert.IsIncreasing(t, ids1)
}

func TestFailRandomBounds(t *testing.T) {
	agents := community(t, 3)
	_, err := FailRandom(agents, 4, nil)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = FailRandom(agents, -1, nil)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	ids, err := FailRandom(agents, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, ids)
}

func TestValidate(t *testing.T) {
	err := Scenario{ProductionFactor: -1, ConsumptionFactor: -2, FailedAgents: -1}.Validate()
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "production_factor")
	assert.Contains(t, err.Error(), "consumption_factor")
	assert.ErrorIs(t, NewCustom(-1, 1).Apply(community(t, 2), nil), model.ErrInvalidArgument)
}

func TestLoadYAML(t *testing.T) {
	s, err := Load("testdata/heatwave.yaml")
	require.NoError(t, err)
	assert.Equal(t, "heatwave", s.Name)
	assert.Equal(t, 1.0, s.ProductionFactor)
	assert.Equal(t, 1.8, s.ConsumptionFactor)
	assert.Equal(t, 2, s.FailedAgents)
	assert.Equal(t, 48, s.Hours)
}

func TestLoadJSON(t *testing.T) {
	s, err := Load("testdata/winter.json")
	require.NoError(t, err)
	assert.Equal(t, 0.4, s.ProductionFactor)
	assert.Equal(t, 1.3, s.ConsumptionFactor)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(strings.NewReader("name: x"), "toml")
	assert.ErrorContains(t, err, "unsupported")
	_, err = Decode(strings.NewReader(`{"production_factor": -1}`), "json")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = Load("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	s, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, Default, s.Name)
	s, err = Resolve(PeakDemand)
	require.NoError(t, err)
	assert.Equal(t, PeakDemand, s.Name)
	s, err = Resolve("testdata/winter.json")
	require.NoError(t, err)
	assert.Equal(t, "winter", s.Name)
}
