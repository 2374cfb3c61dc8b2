package events

import "github.com/kilianp07/warehouse-sim/core/model"

// RunStarted is published once before the first tick.
type RunStarted struct {
	RunID    string
	Scenario string
	Agents   int
	Tasks    int
}

// RunFinished carries the final counters of a run.
type RunFinished struct {
	RunID            string
	Scenario         string
	UtilitarianCost  float64
	ProcessedTicks   int
	IdleArrivalTicks int
	OperationalTicks int
	Assignments      int
	Err              error
}

// TaskAssigned is published for every successful assignment.
type TaskAssigned struct {
	RunID      string
	Scenario   string
	Seq        int
	Assignment model.TaskAssignment
}

// TickCompleted is published after the engine has moved the agents.
type TickCompleted struct {
	RunID           string
	Scenario        string
	Tick            int
	Assigned        int
	Unassigned      int
	UtilitarianCost float64
}
