package simulation

import (
	"fmt"
	"math"

	"github.com/kilianp07/warehouse-sim/core/dispatch"
	"github.com/kilianp07/warehouse-sim/core/warehouse"
)

// Params are the inputs of one run. A run is a pure function of them.
type Params struct {
	Rows          int               `json:"rows" yaml:"rows"`
	Cols          int               `json:"cols" yaml:"cols"`
	EdgeBaseCost  float64           `json:"edge_base_cost" yaml:"edge_base_cost"`
	OccupancyCost float64           `json:"occupancy_cost" yaml:"occupancy_cost"`
	Agents        int               `json:"agents" yaml:"agents"`
	Tasks         int               `json:"tasks" yaml:"tasks"`
	Lambda        float64           `json:"lambda" yaml:"lambda"`
	Seed          int64             `json:"seed" yaml:"seed"`
	TieBreak      dispatch.TieBreak `json:"tie_break" yaml:"tie_break"`
	NodeCapacity  int               `json:"node_capacity" yaml:"node_capacity"`
}

// SetDefaults fills unset optional fields.
func (p *Params) SetDefaults() {
	if p.TieBreak == "" {
		p.TieBreak = dispatch.TieBreakEarliest
	}
	if p.NodeCapacity == 0 {
		p.NodeCapacity = warehouse.DefaultNodeCapacity
	}
}

// Grid returns the graph configuration of the run.
func (p Params) Grid() warehouse.Config {
	return warehouse.Config{
		Rows:          p.Rows,
		Cols:          p.Cols,
		EdgeBaseCost:  p.EdgeBaseCost,
		OccupancyCost: p.OccupancyCost,
		NodeCapacity:  p.NodeCapacity,
	}
}

// Validate checks the run can be built.
func (p Params) Validate() error {
	if err := p.Grid().Validate(); err != nil {
		return err
	}
	if p.Agents < 1 {
		return fmt.Errorf("agents must be at least 1, got %d", p.Agents)
	}
	if nodes := p.Rows * (p.Cols + 1); p.Agents > nodes {
		return fmt.Errorf("agents (%d) exceed node count (%d)", p.Agents, nodes)
	}
	if p.Tasks < 0 {
		return fmt.Errorf("tasks must not be negative, got %d", p.Tasks)
	}
	if !(p.Lambda > 0) || math.IsInf(p.Lambda, 0) {
		return fmt.Errorf("lambda must be positive and finite, got %v", p.Lambda)
	}
	if _, err := dispatch.ParseTieBreak(string(p.TieBreak)); err != nil {
		return err
	}
	return nil
}
