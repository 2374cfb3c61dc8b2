package model

// Task is a single destination to be visited by exactly one agent.
type Task struct {
	Target      NodeID `json:"target"`
	ArrivalTick int    `json:"arrival_tick"`
}

// TaskAssignment records which agent took a task and the full path it was
// given: its position at assignment time followed by the computed route.
type TaskAssignment struct {
	Agent string   `json:"agent"`
	Path  []NodeID `json:"path"`
	// Tick is the simulation tick during which the assignment happened.
	Tick int `json:"tick"`
	// Cost is the live route cost that won the selection.
	Cost float64 `json:"cost"`
}

// Target returns the last node of the assignment path.
func (a TaskAssignment) Target() NodeID {
	if len(a.Path) == 0 {
		return NodeID{}
	}
	return a.Path[len(a.Path)-1]
}

// Hops returns the number of edges the agent has to traverse.
func (a TaskAssignment) Hops() int {
	if len(a.Path) == 0 {
		return 0
	}
	return len(a.Path) - 1
}
