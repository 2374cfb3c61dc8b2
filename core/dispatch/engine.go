// Package dispatch matches arriving tasks to free agents and moves the
// assigned agents across the warehouse one edge per tick.
package dispatch

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/kilianp07/warehouse-sim/core/agent"
	"github.com/kilianp07/warehouse-sim/core/arrival"
	"github.com/kilianp07/warehouse-sim/core/logger"
	"github.com/kilianp07/warehouse-sim/core/model"
	"github.com/kilianp07/warehouse-sim/core/warehouse"
)

// Engine owns the agent pools and the graph occupancy of one run. It is not
// safe for concurrent use.
type Engine struct {
	graph      *warehouse.GridGraph
	unassigned []*agent.Agent
	assigned   []*agent.Agent
	policy     TieBreak
	log        logger.Logger

	utilitarianCost float64
	assignments     []model.TaskAssignment
	ticks           int
}

// PlaceAgents creates n agents named a_0..a_{n-1} on distinct nodes drawn
// from rng.
func PlaceAgents(rng *rand.Rand, g *warehouse.GridGraph, n int) ([]*agent.Agent, error) {
	if n < 0 {
		return nil, fmt.Errorf("agent count must not be negative, got %d", n)
	}
	positions, err := arrival.SampleDistinct(rng, g.NodeIDs(), n)
	if err != nil {
		return nil, fmt.Errorf("place agents: %w", err)
	}
	agents := make([]*agent.Agent, n)
	for i, pos := range positions {
		agents[i] = agent.New(agent.Name(i), pos)
	}
	return agents, nil
}

// NewEngine puts every agent in the unassigned pool in the given order.
func NewEngine(g *warehouse.GridGraph, agents []*agent.Agent, policy TieBreak, log logger.Logger) (*Engine, error) {
	if g == nil {
		return nil, errors.New("dispatch: nil graph")
	}
	policy, err := ParseTieBreak(string(policy))
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}
	seen := make(map[string]struct{}, len(agents))
	for _, a := range agents {
		if !g.HasNode(a.Position()) {
			return nil, &model.NotFoundError{Kind: "node", ID: a.Position().String()}
		}
		if _, dup := seen[a.Name()]; dup {
			return nil, fmt.Errorf("dispatch: duplicate agent %s", a.Name())
		}
		seen[a.Name()] = struct{}{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Engine{
		graph:      g,
		unassigned: append([]*agent.Agent(nil), agents...),
		policy:     policy,
		log:        log,
	}, nil
}

// ProcessTask assigns task to the free agent with the cheapest live route.
// It returns false without touching any state when no agent is free. Routing
// failures are returned as errors and also leave the state untouched.
func (e *Engine) ProcessTask(task model.Task) (bool, error) {
	if len(e.unassigned) == 0 {
		tasksDeferred.Inc()
		return false, nil
	}
	cands := make([]candidate, 0, len(e.unassigned))
	for _, a := range e.unassigned {
		route, cost, err := a.RouteTo(task.Target, e.graph)
		if err != nil {
			return false, fmt.Errorf("route %s to %s: %w", a.Name(), task.Target, err)
		}
		cands = append(cands, candidate{agent: a, route: route, cost: cost})
	}
	idx := e.policy.pick(cands)
	win := cands[idx]
	start := win.agent.Position()

	e.unassigned = append(e.unassigned[:idx:idx], e.unassigned[idx+1:]...)
	e.assigned = append(e.assigned, win.agent)
	win.agent.Assign(win.route)
	if err := e.refreshOccupancy(); err != nil {
		return false, err
	}

	full := make([]model.NodeID, 0, len(win.route)+1)
	full = append(full, start)
	full = append(full, win.route...)
	e.assignments = append(e.assignments, model.TaskAssignment{
		Agent: win.agent.Name(),
		Path:  full,
		Tick:  e.ticks,
		Cost:  win.cost,
	})
	tasksAssigned.Inc()
	routeCost.Observe(win.cost)
	e.log.Debugw("task assigned", map[string]any{
		"agent":  win.agent.Name(),
		"target": task.Target.String(),
		"cost":   win.cost,
		"hops":   len(win.route),
		"tick":   e.ticks,
	})
	return true, nil
}

// Tick moves every assigned agent one edge, releases the agents that reached
// their target, charges the traffic of the tick and recounts occupancy.
func (e *Engine) Tick() error {
	for _, a := range e.assigned {
		if _, err := a.Advance(e.graph); err != nil {
			return err
		}
	}
	still := e.assigned[:0:0]
	for _, a := range e.assigned {
		if a.IsAssigned() {
			still = append(still, a)
		} else {
			e.unassigned = append(e.unassigned, a)
		}
	}
	e.assigned = still

	// occupancy still reflects the moves made during this tick
	var charged float64
	for _, k := range e.graph.OccupiedEdges() {
		c, err := e.graph.EdgeCost(k.A, k.B)
		if err != nil {
			return err
		}
		charged += c
	}
	e.utilitarianCost += charged

	if err := e.refreshOccupancy(); err != nil {
		return err
	}
	e.ticks++
	ticksProcessed.Inc()
	tickTrafficCost.Observe(charged)
	return nil
}

// refreshOccupancy recounts every edge from the next move of each assigned
// agent.
func (e *Engine) refreshOccupancy() error {
	e.graph.ClearOccupancy()
	for _, a := range e.assigned {
		from, to, ok := a.NextMove()
		if !ok {
			continue
		}
		if err := e.graph.IncreaseOccupancy(from, to); err != nil {
			return fmt.Errorf("agent %s: %w", a.Name(), err)
		}
	}
	return nil
}

// UtilitarianCost is the traffic cost charged so far.
func (e *Engine) UtilitarianCost() float64 { return e.utilitarianCost }

// Ticks is the number of Tick calls that completed.
func (e *Engine) Ticks() int { return e.ticks }

// Graph returns the graph the engine routes on.
func (e *Engine) Graph() *warehouse.GridGraph { return e.graph }

// Assignments returns a copy of the assignment log in assignment order.
func (e *Engine) Assignments() []model.TaskAssignment {
	return append([]model.TaskAssignment(nil), e.assignments...)
}

// LastAssignment returns the most recent assignment and its position in the
// log. ok is false while the log is empty.
func (e *Engine) LastAssignment() (seq int, a model.TaskAssignment, ok bool) {
	if len(e.assignments) == 0 {
		return 0, model.TaskAssignment{}, false
	}
	seq = len(e.assignments) - 1
	return seq, e.assignments[seq], true
}

// AssignedCount returns the number of agents with remaining work.
func (e *Engine) AssignedCount() int { return len(e.assigned) }

// UnassignedCount returns the number of free agents.
func (e *Engine) UnassignedCount() int { return len(e.unassigned) }

// AssignedAgents returns snapshots of the assigned pool in pool order.
func (e *Engine) AssignedAgents() []agent.State { return states(e.assigned) }

// UnassignedAgents returns snapshots of the free pool in pool order.
func (e *Engine) UnassignedAgents() []agent.State { return states(e.unassigned) }

func states(as []*agent.Agent) []agent.State {
	out := make([]agent.State, len(as))
	for i, a := range as {
		out[i] = a.State()
	}
	return out
}
