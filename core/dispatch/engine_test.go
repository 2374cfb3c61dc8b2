package dispatch

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/warehouse-sim/core/agent"
	"github.com/kilianp07/warehouse-sim/core/arrival"
	"github.com/kilianp07/warehouse-sim/core/model"
	"github.com/kilianp07/warehouse-sim/core/warehouse"
)

func n(r, c int) model.NodeID { return model.NodeID{Row: r, Col: c} }

func newGrid(t *testing.T, rows, cols int, occ float64) *warehouse.GridGraph {
	t.Helper()
	g, err := warehouse.New(warehouse.Config{Rows: rows, Cols: cols, EdgeBaseCost: 1, OccupancyCost: occ})
	require.NoError(t, err)
	return g
}

func newEngine(t *testing.T, g *warehouse.GridGraph, policy TieBreak, positions ...model.NodeID) *Engine {
	t.Helper()
	agents := make([]*agent.Agent, len(positions))
	for i, p := range positions {
		agents[i] = agent.New(agent.Name(i), p)
	}
	e, err := NewEngine(g, agents, policy, nil)
	require.NoError(t, err)
	return e
}

func names(states []agent.State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = s.Name
	}
	return out
}

func TestProcessTaskSelectsCheapestAgent(t *testing.T) {
	ResetMetrics(prometheus.NewRegistry())
	g := newGrid(t, 3, 3, 0)
	e := newEngine(t, g, TieBreakEarliest, n(0, 0), n(1, 2))
	target, err := model.ParseNodeID("2_3")
	require.NoError(t, err)

	ok, err := e.ProcessTask(model.Task{Target: target})
	require.NoError(t, err)
	require.True(t, ok)

	logs := e.Assignments()
	require.Len(t, logs, 1)
	assert.Equal(t, "a_1", logs[0].Agent)
	assert.Equal(t, n(1, 2), logs[0].Path[0])
	assert.Equal(t, target, logs[0].Target())
	assert.Equal(t, 2.0, logs[0].Cost)
	assert.Equal(t, []string{"a_1"}, names(e.AssignedAgents()))
	assert.Equal(t, []string{"a_0"}, names(e.UnassignedAgents()))
	assert.Equal(t, 1.0, testutil.ToFloat64(tasksAssigned))
}

func TestProcessTaskSeededPlacement(t *testing.T) {
	g := newGrid(t, 3, 3, 0)
	agents, err := PlaceAgents(arrival.NewRand(7), g, 2)
	require.NoError(t, err)
	require.NotEqual(t, agents[0].Position(), agents[1].Position())
	target := n(2, 3)

	costs := make([]float64, 2)
	for i, a := range agents {
		_, c, err := g.ShortestPath(a.Position(), target, g.EdgeCost)
		require.NoError(t, err)
		costs[i] = c
	}
	want := agents[0]
	if costs[1] < costs[0] {
		want = agents[1]
	}
	start := want.Position()

	e, err := NewEngine(g, agents, TieBreakEarliest, nil)
	require.NoError(t, err)
	ok, err := e.ProcessTask(model.Task{Target: target})
	require.NoError(t, err)
	require.True(t, ok)

	rec := e.Assignments()[0]
	assert.Equal(t, want.Name(), rec.Agent)
	assert.Equal(t, start, rec.Path[0])
	assert.Equal(t, target, rec.Path[len(rec.Path)-1])
	assert.Equal(t, 1, e.AssignedCount())
	assert.Equal(t, 1, e.UnassignedCount())
}

func TestProcessTaskExclusivity(t *testing.T) {
	g := newGrid(t, 3, 3, 0)
	e := newEngine(t, g, TieBreakEarliest, n(0, 0), n(2, 3))
	assert.Equal(t, []string{"a_0", "a_1"}, names(e.UnassignedAgents()))
	assert.Empty(t, e.AssignedAgents())

	ok, err := e.ProcessTask(model.Task{Target: n(0, 1)})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a_0"}, names(e.AssignedAgents()))
	assert.Equal(t, []string{"a_1"}, names(e.UnassignedAgents()))
}

func TestProcessTaskWithoutFreeAgent(t *testing.T) {
	ResetMetrics(prometheus.NewRegistry())
	g := newGrid(t, 3, 3, 1)
	e := newEngine(t, g, TieBreakEarliest, n(0, 0))

	ok, err := e.ProcessTask(model.Task{Target: n(0, 2)})
	require.NoError(t, err)
	require.True(t, ok)

	occBefore, err := g.Occupancy(n(0, 0), n(0, 1))
	require.NoError(t, err)
	costBefore := e.UtilitarianCost()
	pathBefore := e.AssignedAgents()[0].Path

	ok, err = e.ProcessTask(model.Task{Target: n(2, 3)})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, e.Assignments(), 1)
	assert.Equal(t, costBefore, e.UtilitarianCost())
	occAfter, err := g.Occupancy(n(0, 0), n(0, 1))
	require.NoError(t, err)
	assert.Equal(t, occBefore, occAfter)
	assert.Equal(t, pathBefore, e.AssignedAgents()[0].Path)
	assert.Equal(t, 1.0, testutil.ToFloat64(tasksDeferred))
}

func TestProcessTaskUnknownTarget(t *testing.T) {
	g := newGrid(t, 2, 2, 0)
	e := newEngine(t, g, TieBreakEarliest, n(0, 0))
	ok, err := e.ProcessTask(model.Task{Target: n(9, 9)})
	assert.False(t, ok)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, 1, e.UnassignedCount())
	assert.Empty(t, e.Assignments())
}

func TestTieBreakPolicies(t *testing.T) {
	tests := []struct {
		name   string
		policy TieBreak
		pos    []model.NodeID
		want   string
	}{
		{"earliest on tie", TieBreakEarliest, []model.NodeID{n(0, 0), n(0, 2)}, "a_0"},
		{"last iterated on tie", TieBreakLastIterated, []model.NodeID{n(0, 0), n(0, 2)}, "a_1"},
		{"earliest strict minimum", TieBreakEarliest, []model.NodeID{n(2, 3), n(0, 0), n(0, 2)}, "a_1"},
		{"last iterated ignores cost", TieBreakLastIterated, []model.NodeID{n(0, 1), n(2, 3)}, "a_1"},
		{"empty policy defaults to earliest", "", []model.NodeID{n(0, 0), n(0, 2)}, "a_0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, newGrid(t, 3, 3, 0), tt.policy, tt.pos...)
			ok, err := e.ProcessTask(model.Task{Target: n(0, 1)})
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, e.Assignments()[0].Agent)
		})
	}
}

func TestOccupancyTracksNextMoves(t *testing.T) {
	g := newGrid(t, 3, 3, 1)
	e := newEngine(t, g, TieBreakEarliest, n(0, 0), n(2, 3))

	ok, err := e.ProcessTask(model.Task{Target: n(0, 2)})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []model.EdgeKey{model.NewEdgeKey(n(0, 0), n(0, 1))}, g.OccupiedEdges())

	require.NoError(t, e.Tick())
	assert.Equal(t, []model.EdgeKey{model.NewEdgeKey(n(0, 1), n(0, 2))}, g.OccupiedEdges())

	require.NoError(t, e.Tick())
	assert.Empty(t, g.OccupiedEdges())
}

func TestTickDrainsPath(t *testing.T) {
	g := newGrid(t, 3, 3, 0)
	e := newEngine(t, g, TieBreakEarliest, n(0, 0))
	ok, err := e.ProcessTask(model.Task{Target: n(2, 3)})
	require.NoError(t, err)
	require.True(t, ok)
	k := len(e.AssignedAgents()[0].Path)
	require.Equal(t, 5, k)

	for i := 1; i < k; i++ {
		require.NoError(t, e.Tick())
		require.Equal(t, 1, e.AssignedCount(), "tick %d", i)
	}
	require.NoError(t, e.Tick())
	assert.Equal(t, 0, e.AssignedCount())
	free := e.UnassignedAgents()
	require.Len(t, free, 1)
	assert.Equal(t, n(2, 3), free[0].Position)
	assert.Equal(t, float64(k), e.UtilitarianCost())
	assert.Equal(t, k, e.Ticks())
}

func TestTickChargesSharedEdgeOnce(t *testing.T) {
	g := newGrid(t, 2, 2, 1)
	e := newEngine(t, g, TieBreakEarliest, n(0, 0), n(0, 0))

	for i := 0; i < 2; i++ {
		ok, err := e.ProcessTask(model.Task{Target: n(0, 1)})
		require.NoError(t, err)
		require.True(t, ok)
	}
	logs := e.Assignments()
	assert.Equal(t, 1.0, logs[0].Cost)
	assert.Equal(t, 2.0, logs[1].Cost)
	occ, err := g.Occupancy(n(0, 0), n(0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, occ)

	require.NoError(t, e.Tick())
	assert.Equal(t, 3.0, e.UtilitarianCost())
	for _, s := range e.UnassignedAgents() {
		assert.Equal(t, 3.0, s.AccumulatedCost)
	}
	assert.Empty(t, g.OccupiedEdges())
}

func TestTaskAtOwnPosition(t *testing.T) {
	g := newGrid(t, 2, 2, 0)
	e := newEngine(t, g, TieBreakEarliest, n(1, 1))
	ok, err := e.ProcessTask(model.Task{Target: n(1, 1)})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []model.NodeID{n(1, 1)}, e.Assignments()[0].Path)
	assert.Equal(t, 1, e.AssignedCount())

	require.NoError(t, e.Tick())
	assert.Equal(t, 0, e.AssignedCount())
	assert.Zero(t, e.UtilitarianCost())
}

func TestRequeueOrder(t *testing.T) {
	g := newGrid(t, 3, 3, 0)
	e := newEngine(t, g, TieBreakEarliest, n(0, 0), n(2, 3), n(1, 1))
	_, err := e.ProcessTask(model.Task{Target: n(0, 2)})
	require.NoError(t, err)
	_, err = e.ProcessTask(model.Task{Target: n(2, 2)})
	require.NoError(t, err)
	assert.Equal(t, []string{"a_2"}, names(e.UnassignedAgents()))

	require.NoError(t, e.Tick())
	assert.Equal(t, []string{"a_2", "a_1"}, names(e.UnassignedAgents()))
}

func TestNewEngineValidation(t *testing.T) {
	g := newGrid(t, 2, 2, 0)
	_, err := NewEngine(nil, nil, TieBreakEarliest, nil)
	assert.Error(t, err)

	_, err = NewEngine(g, []*agent.Agent{agent.New("a_0", n(5, 5))}, TieBreakEarliest, nil)
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = NewEngine(g, []*agent.Agent{agent.New("a_0", n(0, 0)), agent.New("a_0", n(0, 1))}, TieBreakEarliest, nil)
	assert.Error(t, err)

	_, err = NewEngine(g, nil, TieBreak("random"), nil)
	assert.Error(t, err)
}

func TestPlaceAgents(t *testing.T) {
	g := newGrid(t, 3, 3, 0)
	a1, err := PlaceAgents(arrival.NewRand(11), g, 12)
	require.NoError(t, err)
	seen := map[model.NodeID]bool{}
	for i, a := range a1 {
		assert.Equal(t, agent.Name(i), a.Name())
		assert.False(t, seen[a.Position()], "duplicate position %s", a.Position())
		seen[a.Position()] = true
	}

	a2, err := PlaceAgents(arrival.NewRand(11), g, 12)
	require.NoError(t, err)
	for i := range a1 {
		assert.Equal(t, a1[i].Position(), a2[i].Position())
	}

	_, err = PlaceAgents(arrival.NewRand(11), g, 13)
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, TieBreakEarliest, c.TieBreak)
	assert.NoError(t, c.Validate())
	c.TieBreak = "nope"
	assert.Error(t, c.Validate())
}

func TestLastAssignment(t *testing.T) {
	g := newGrid(t, 3, 3, 0)
	e := newEngine(t, g, TieBreakEarliest, n(0, 0), n(2, 3))
	_, _, ok := e.LastAssignment()
	assert.False(t, ok)

	for _, target := range []model.NodeID{n(0, 2), n(2, 1)} {
		_, err := e.ProcessTask(model.Task{Target: target})
		require.NoError(t, err)
	}
	seq, a, ok := e.LastAssignment()
	require.True(t, ok)
	assert.Equal(t, 1, seq)
	assert.Equal(t, e.Assignments()[1], a)
	assert.Equal(t, n(2, 1), a.Target())
}
