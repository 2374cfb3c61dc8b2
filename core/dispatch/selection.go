package dispatch

import (
	"fmt"

	"github.com/kilianp07/warehouse-sim/core/agent"
	"github.com/kilianp07/warehouse-sim/core/model"
)

// TieBreak selects which candidate wins a task.
type TieBreak string

const (
	// TieBreakEarliest picks the strictly cheapest agent, earliest in pool
	// order on ties.
	TieBreakEarliest TieBreak = "earliest"
	// TieBreakLastIterated always returns the last agent of the pool,
	// matching the historical reference output.
	TieBreakLastIterated TieBreak = "last_iterated"
)

// ParseTieBreak converts a config value. The empty string maps to
// TieBreakEarliest.
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(s) {
	case "", TieBreakEarliest:
		return TieBreakEarliest, nil
	case TieBreakLastIterated:
		return TieBreakLastIterated, nil
	default:
		return "", fmt.Errorf("unknown tie break %q", s)
	}
}

// candidate is one unassigned agent's bid for a task.
type candidate struct {
	agent *agent.Agent
	route []model.NodeID
	cost  float64
}

// pick returns the index of the winning candidate, or -1 if there is none.
func (tb TieBreak) pick(cands []candidate) int {
	if len(cands) == 0 {
		return -1
	}
	if tb == TieBreakLastIterated {
		return len(cands) - 1
	}
	best := 0
	for i := 1; i < len(cands); i++ {
		if cands[i].cost < cands[best].cost {
			best = i
		}
	}
	return best
}
