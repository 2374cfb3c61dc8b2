// Package agent implements the mobile agents moving across the warehouse.
package agent

import (
	"fmt"

	"github.com/kilianp07/warehouse-sim/core/model"
	"github.com/kilianp07/warehouse-sim/core/warehouse"
)

// Router is the part of the warehouse graph agents are allowed to query.
type Router interface {
	EdgeCost(u, v model.NodeID) (float64, error)
	ShortestPath(source, target model.NodeID, weight warehouse.WeightFunc) ([]model.NodeID, float64, error)
}

// Name returns the canonical name of the i-th agent.
func Name(i int) string { return fmt.Sprintf("a_%d", i) }

// Agent is a single mobile unit. It is idle when its path is empty.
type Agent struct {
	name            string
	position        model.NodeID
	path            []model.NodeID
	accumulatedCost float64
}

// New places an idle agent on pos.
func New(name string, pos model.NodeID) *Agent {
	return &Agent{name: name, position: pos}
}

func (a *Agent) Name() string           { return a.name }
func (a *Agent) Position() model.NodeID { return a.position }

// Path returns a copy of the nodes left to traverse.
func (a *Agent) Path() []model.NodeID { return append([]model.NodeID(nil), a.path...) }

// IsAssigned reports whether the agent still has nodes to traverse.
func (a *Agent) IsAssigned() bool { return len(a.path) > 0 }

// AccumulatedCost is the sum of the live edge costs the agent paid while
// moving. It is bookkeeping only and plays no part in task selection.
func (a *Agent) AccumulatedCost() float64 { return a.accumulatedCost }

// NextMove returns the edge the agent traverses on its next tick.
func (a *Agent) NextMove() (from, to model.NodeID, ok bool) {
	if len(a.path) == 0 {
		return model.NodeID{}, model.NodeID{}, false
	}
	return a.position, a.path[0], true
}

// RouteTo returns the cheapest route to target under the live edge costs of
// g, excluding the agent's own position, together with its cost.
func (a *Agent) RouteTo(target model.NodeID, g Router) ([]model.NodeID, float64, error) {
	full, cost, err := g.ShortestPath(a.position, target, g.EdgeCost)
	if err != nil {
		return nil, 0, err
	}
	return full[1:], cost, nil
}

// RouteThrough chains cheapest routes from the agent's position through each
// waypoint in order. Each leg excludes its start node.
func (a *Agent) RouteThrough(waypoints []model.NodeID, g Router) ([]model.NodeID, float64, error) {
	var (
		route []model.NodeID
		total float64
	)
	from := a.position
	for _, wp := range waypoints {
		full, cost, err := g.ShortestPath(from, wp, g.EdgeCost)
		if err != nil {
			return nil, 0, fmt.Errorf("leg %s->%s: %w", from, wp, err)
		}
		route = append(route, full[1:]...)
		total += cost
		from = wp
	}
	return route, total, nil
}

// Assign replaces the agent's remaining path.
func (a *Agent) Assign(route []model.NodeID) {
	a.path = append([]model.NodeID(nil), route...)
}

// Advance moves the agent across one edge. It returns false when the agent
// had nothing left to traverse.
func (a *Agent) Advance(g Router) (bool, error) {
	if len(a.path) == 0 {
		return false, nil
	}
	next := a.path[0]
	cost, err := g.EdgeCost(a.position, next)
	if err != nil {
		return false, fmt.Errorf("agent %s: %w", a.name, err)
	}
	a.accumulatedCost += cost
	a.position = next
	a.path = a.path[1:]
	return true, nil
}

// State is a read-only copy of an agent.
type State struct {
	Name            string         `json:"name"`
	Position        model.NodeID   `json:"position"`
	Path            []model.NodeID `json:"path,omitempty"`
	AccumulatedCost float64        `json:"accumulated_cost"`
}

// State returns a snapshot of the agent.
func (a *Agent) State() State {
	return State{Name: a.name, Position: a.position, Path: a.Path(), AccumulatedCost: a.accumulatedCost}
}
