// Package logging persists the assignment log of simulation runs.
package logging

import (
	"context"
	"time"

	"github.com/kilianp07/warehouse-sim/core/model"
)

// AssignmentRecord captures one task assignment of one run.
type AssignmentRecord struct {
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	Scenario  string         `json:"scenario"`
	Seq       int            `json:"seq"`
	Tick      int            `json:"tick"`
	Agent     string         `json:"agent"`
	Path      []model.NodeID `json:"path"`
	Cost      float64        `json:"cost"`
}

// NewRecord builds the record for the seq-th assignment of a run.
func NewRecord(runID, scenario string, seq int, a model.TaskAssignment, ts time.Time) AssignmentRecord {
	return AssignmentRecord{
		Timestamp: ts,
		RunID:     runID,
		Scenario:  scenario,
		Seq:       seq,
		Tick:      a.Tick,
		Agent:     a.Agent,
		Path:      append([]model.NodeID(nil), a.Path...),
		Cost:      a.Cost,
	}
}

// Query defines filters for retrieving records. Zero fields match anything.
type Query struct {
	RunID    string
	Scenario string
	Agent    string
	Limit    int
}

// Match reports whether r passes every filter of q except Limit.
func (q Query) Match(r AssignmentRecord) bool {
	if q.RunID != "" && r.RunID != q.RunID {
		return false
	}
	if q.Scenario != "" && r.Scenario != q.Scenario {
		return false
	}
	if q.Agent != "" && r.Agent != q.Agent {
		return false
	}
	return true
}

func (q Query) full(n int) bool { return q.Limit > 0 && n >= q.Limit }

// Store persists AssignmentRecords and supports querying.
type Store interface {
	Append(ctx context.Context, recs ...AssignmentRecord) error
	Query(ctx context.Context, q Query) ([]AssignmentRecord, error)
	Close() error
}
