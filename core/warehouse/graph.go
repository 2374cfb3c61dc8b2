// Package warehouse models the warehouse floor as a congestion-aware grid
// graph. Edge cost grows with the number of agents about to traverse it.
package warehouse

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/kilianp07/warehouse-sim/core/model"
)

// DefaultNodeCapacity marks a node capacity as unlimited.
const DefaultNodeCapacity = -1

// Config defines the lattice dimensions and the edge cost coefficients.
type Config struct {
	Rows          int     `json:"rows"`
	Cols          int     `json:"cols"`
	EdgeBaseCost  float64 `json:"edge_base_cost"`
	OccupancyCost float64 `json:"occupancy_cost"`
	NodeCapacity  int     `json:"node_capacity"`
}

// Validate checks the lattice can be built.
func (c Config) Validate() error {
	if c.Rows < 1 {
		return fmt.Errorf("rows must be at least 1, got %d", c.Rows)
	}
	if c.Cols < 0 {
		return fmt.Errorf("cols must not be negative, got %d", c.Cols)
	}
	if c.EdgeBaseCost < 0 || math.IsNaN(c.EdgeBaseCost) {
		return fmt.Errorf("edge base cost must not be negative")
	}
	if c.OccupancyCost < 0 || math.IsNaN(c.OccupancyCost) {
		return fmt.Errorf("occupancy cost must not be negative")
	}
	return nil
}

// WeightFunc returns the cost of traversing the edge between u and v. It is
// evaluated while the shortest path search runs, so it always sees live state.
type WeightFunc func(u, v model.NodeID) (float64, error)

type edgeState struct {
	baseWeight float64
	occupancy  int
}

// GridGraph is a rectangular lattice of Rows x (Cols+1) nodes. Every node is
// linked to its right neighbour and to the node below it.
type GridGraph struct {
	rows, cols    int
	occupancyCost float64

	g         *simple.UndirectedGraph
	nodes     []model.Node
	index     map[model.NodeID]int
	adjacency map[int64][]graph.Node
	edges     map[model.EdgeKey]*edgeState
	edgeOrder []model.EdgeKey
}

// New builds the lattice described by cfg with every edge at the base cost
// and zero occupancy.
func New(cfg Config) (*GridGraph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &GridGraph{
		rows:          cfg.Rows,
		cols:          cfg.Cols,
		occupancyCost: cfg.OccupancyCost,
		g:             simple.NewUndirectedGraph(),
		index:         make(map[model.NodeID]int),
		adjacency:     make(map[int64][]graph.Node),
		edges:         make(map[model.EdgeKey]*edgeState),
	}
	for i := 0; i < cfg.Rows; i++ {
		for j := 0; j <= cfg.Cols; j++ {
			id := model.NodeID{Row: i, Col: j}
			w.index[id] = len(w.nodes)
			w.nodes = append(w.nodes, model.Node{ID: id, Capacity: cfg.NodeCapacity, AvailableCapacity: cfg.NodeCapacity})
			w.g.AddNode(simple.Node(w.gid(id)))
		}
	}
	for i := 0; i < cfg.Rows; i++ {
		for j := 0; j < cfg.Cols; j++ {
			w.addEdge(model.NodeID{Row: i, Col: j}, model.NodeID{Row: i, Col: j + 1}, cfg.EdgeBaseCost)
		}
	}
	for i := 0; i < cfg.Rows-1; i++ {
		for j := 0; j <= cfg.Cols; j++ {
			w.addEdge(model.NodeID{Row: i, Col: j}, model.NodeID{Row: i + 1, Col: j}, cfg.EdgeBaseCost)
		}
	}
	for id, adj := range w.adjacency {
		sort.Slice(adj, func(a, b int) bool { return adj[a].ID() < adj[b].ID() })
		w.adjacency[id] = adj
	}
	return w, nil
}

func (w *GridGraph) addEdge(u, v model.NodeID, base float64) {
	uid, vid := simple.Node(w.gid(u)), simple.Node(w.gid(v))
	w.g.SetEdge(w.g.NewEdge(uid, vid))
	w.adjacency[uid.ID()] = append(w.adjacency[uid.ID()], vid)
	w.adjacency[vid.ID()] = append(w.adjacency[vid.ID()], uid)
	key := model.NewEdgeKey(u, v)
	w.edges[key] = &edgeState{baseWeight: base}
	w.edgeOrder = append(w.edgeOrder, key)
}

func (w *GridGraph) gid(n model.NodeID) int64 {
	return int64(n.Row*(w.cols+1) + n.Col)
}

func (w *GridGraph) nodeID(id int64) model.NodeID {
	width := int64(w.cols + 1)
	return model.NodeID{Row: int(id / width), Col: int(id % width)}
}

// Rows returns the number of lattice rows.
func (w *GridGraph) Rows() int { return w.rows }

// Cols returns the configured column count; each row holds Cols+1 nodes.
func (w *GridGraph) Cols() int { return w.cols }

// NodeCount returns the number of nodes.
func (w *GridGraph) NodeCount() int { return len(w.nodes) }

// EdgeCount returns the number of undirected edges.
func (w *GridGraph) EdgeCount() int { return len(w.edgeOrder) }

// NodeIDs returns every node in row-major order.
func (w *GridGraph) NodeIDs() []model.NodeID {
	out := make([]model.NodeID, len(w.nodes))
	for i, n := range w.nodes {
		out[i] = n.ID
	}
	return out
}

// Node returns the node record for id.
func (w *GridGraph) Node(id model.NodeID) (model.Node, error) {
	i, ok := w.index[id]
	if !ok {
		return model.Node{}, &model.NotFoundError{Kind: "node", ID: id.String()}
	}
	return w.nodes[i], nil
}

// HasNode reports whether id belongs to the lattice.
func (w *GridGraph) HasNode(id model.NodeID) bool {
	_, ok := w.index[id]
	return ok
}

// Edges returns every edge key in construction order.
func (w *GridGraph) Edges() []model.EdgeKey {
	return append([]model.EdgeKey(nil), w.edgeOrder...)
}

func (w *GridGraph) edge(u, v model.NodeID) (*edgeState, error) {
	e, ok := w.edges[model.NewEdgeKey(u, v)]
	if !ok {
		return nil, &model.NotFoundError{Kind: "edge", ID: model.NewEdgeKey(u, v).String()}
	}
	return e, nil
}

// EdgeCost returns base_weight + occupancy_cost * occupancy for the edge
// between u and v. The value is never cached.
func (w *GridGraph) EdgeCost(u, v model.NodeID) (float64, error) {
	e, err := w.edge(u, v)
	if err != nil {
		return 0, err
	}
	return e.baseWeight + w.occupancyCost*float64(e.occupancy), nil
}

// Occupancy returns the number of agents about to traverse the edge.
func (w *GridGraph) Occupancy(u, v model.NodeID) (int, error) {
	e, err := w.edge(u, v)
	if err != nil {
		return 0, err
	}
	return e.occupancy, nil
}

// ClearOccupancy resets every edge occupancy to zero.
func (w *GridGraph) ClearOccupancy() {
	for _, e := range w.edges {
		e.occupancy = 0
	}
}

// IncreaseOccupancy adds one agent to the edge between u and v.
func (w *GridGraph) IncreaseOccupancy(u, v model.NodeID) error {
	e, err := w.edge(u, v)
	if err != nil {
		return err
	}
	e.occupancy++
	return nil
}

// DecreaseOccupancy removes one agent from the edge, never going below zero.
func (w *GridGraph) DecreaseOccupancy(u, v model.NodeID) error {
	e, err := w.edge(u, v)
	if err != nil {
		return err
	}
	if e.occupancy > 0 {
		e.occupancy--
	}
	return nil
}

// OccupiedEdges returns the edges with a positive occupancy in construction
// order.
func (w *GridGraph) OccupiedEdges() []model.EdgeKey {
	var out []model.EdgeKey
	for _, k := range w.edgeOrder {
		if w.edges[k].occupancy > 0 {
			out = append(out, k)
		}
	}
	return out
}

// PathCost sums EdgeCost over consecutive pairs. Paths of length <= 1 cost 0.
func (w *GridGraph) PathCost(p []model.NodeID) (float64, error) {
	var cost float64
	for i := 0; i+1 < len(p); i++ {
		c, err := w.EdgeCost(p[i], p[i+1])
		if err != nil {
			return 0, err
		}
		cost += c
	}
	return cost, nil
}

// ShortestPath returns the cheapest node sequence from source to target,
// both included, and its total weight under weight. The weight function is
// evaluated during the search.
func (w *GridGraph) ShortestPath(source, target model.NodeID, weight WeightFunc) ([]model.NodeID, float64, error) {
	if !w.HasNode(source) {
		return nil, 0, &model.NotFoundError{Kind: "node", ID: source.String()}
	}
	if !w.HasNode(target) {
		return nil, 0, &model.NotFoundError{Kind: "node", ID: target.String()}
	}
	view := &liveView{UndirectedGraph: w.g, grid: w, weight: weight}
	sp := path.DijkstraFrom(simple.Node(w.gid(source)), view)
	if view.err != nil {
		return nil, 0, view.err
	}
	nodes, total := sp.To(w.gid(target))
	if len(nodes) == 0 || math.IsInf(total, 1) {
		return nil, 0, &model.NoPathError{From: source, To: target}
	}
	out := make([]model.NodeID, len(nodes))
	for i, n := range nodes {
		out[i] = w.nodeID(n.ID())
	}
	return out, total, nil
}

// liveView exposes the lattice to gonum with weights computed on demand and
// neighbours returned in a stable order, so equal-cost routes resolve the
// same way on every run.
type liveView struct {
	*simple.UndirectedGraph
	grid   *GridGraph
	weight WeightFunc
	err    error
}

func (v *liveView) From(id int64) graph.Nodes {
	adj := v.grid.adjacency[id]
	if len(adj) == 0 {
		return graph.Empty
	}
	return iterator.NewOrderedNodes(adj)
}

func (v *liveView) Weight(xid, yid int64) (float64, bool) {
	if xid == yid {
		return 0, true
	}
	if !v.UndirectedGraph.HasEdgeBetween(xid, yid) {
		return math.Inf(1), false
	}
	c, err := v.weight(v.grid.nodeID(xid), v.grid.nodeID(yid))
	switch {
	case err != nil:
		v.setErr(err)
		return math.Inf(1), true
	case c < 0 || math.IsNaN(c):
		v.setErr(fmt.Errorf("invalid weight %v on edge %s", c, model.NewEdgeKey(v.grid.nodeID(xid), v.grid.nodeID(yid))))
		return math.Inf(1), true
	}
	return c, true
}

func (v *liveView) setErr(err error) {
	if v.err == nil {
		v.err = err
	}
}
