package metrics

import "time"

// RunSummary is the outcome of one simulation run together with the
// parameters that produced it.
type RunSummary struct {
	RunID    string
	Scenario string

	Rows          int
	Cols          int
	Agents        int
	Tasks         int
	OccupancyCost float64
	Lambda        float64
	Seed          int64

	UtilitarianCost   float64
	ProcessedTicks    int
	IdleArrivalTicks  int
	OperationalTicks  int
	Assignments       int
	AveragePathLength float64

	Duration time.Duration
	Time     time.Time
}

// MetricsSink records run outcomes for observability purposes.
type MetricsSink interface {
	RecordRun(s RunSummary) error
}

// AssignmentEvent is one task assignment observed live.
type AssignmentEvent struct {
	RunID    string
	Scenario string
	Seq      int
	Agent    string
	Tick     int
	Hops     int
	Cost     float64
	Time     time.Time
}

// AssignmentRecorder records live assignments.
type AssignmentRecorder interface {
	RecordAssignment(ev AssignmentEvent) error
}

// TickEvent is the engine state after one tick.
type TickEvent struct {
	RunID           string
	Scenario        string
	Tick            int
	Assigned        int
	Unassigned      int
	UtilitarianCost float64
	Time            time.Time
}

// TickRecorder records tick snapshots.
type TickRecorder interface {
	RecordTick(ev TickEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunSummary) error              { return nil }
func (NopSink) RecordAssignment(AssignmentEvent) error { return nil }
func (NopSink) RecordTick(TickEvent) error             { return nil }
