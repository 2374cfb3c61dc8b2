package simulation

import "github.com/kilianp07/warehouse-sim/core/model"

// Result summarises a finished run.
type Result struct {
	UtilitarianCost   float64 `json:"utilitarian_cost"`
	ProcessedTicks    int     `json:"processed_ticks"`
	IdleArrivalTicks  int     `json:"idle_arrival_ticks"`
	OperationalTicks  int     `json:"operational_ticks"`
	Assignments       int     `json:"assignments"`
	AveragePathLength float64 `json:"average_path_length"`
}

// Result returns the counters of the run.
func (s *Simulation) Result() Result {
	logs := s.engine.Assignments()
	return Result{
		UtilitarianCost:   s.engine.UtilitarianCost(),
		ProcessedTicks:    s.ticks,
		IdleArrivalTicks:  s.idle,
		OperationalTicks:  s.operational,
		Assignments:       len(logs),
		AveragePathLength: AveragePathLength(logs),
	}
}

// AveragePathLength is the mean node count of the full assignment paths,
// start node included. It is 0 for an empty log.
func AveragePathLength(logs []model.TaskAssignment) float64 {
	if len(logs) == 0 {
		return 0
	}
	total := 0
	for _, a := range logs {
		total += len(a.Path)
	}
	return float64(total) / float64(len(logs))
}
