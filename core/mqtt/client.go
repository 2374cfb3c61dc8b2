package mqtt

import (
	"context"

	"github.com/kilianp07/warehouse-sim/core/model"
)

// Mission is the order sent to an agent when it wins a task.
type Mission struct {
	MissionID string   `json:"mission_id"`
	RunID     string   `json:"run_id"`
	Scenario  string   `json:"scenario,omitempty"`
	Seq       int      `json:"seq"`
	Agent     string   `json:"agent"`
	Tick      int      `json:"tick"`
	Path      []string `json:"path"`
	Cost      float64  `json:"cost"`
	Timestamp int64    `json:"timestamp"`
}

// NewMission converts an assignment into a mission. The mission id is left
// empty for the publisher to fill.
func NewMission(runID, scenario string, seq int, a model.TaskAssignment) Mission {
	path := make([]string, len(a.Path))
	for i, n := range a.Path {
		path[i] = n.String()
	}
	return Mission{
		RunID:    runID,
		Scenario: scenario,
		Seq:      seq,
		Agent:    a.Agent,
		Tick:     a.Tick,
		Path:     path,
		Cost:     a.Cost,
	}
}

// MissionPublisher delivers missions to the agents.
type MissionPublisher interface {
	// PublishMission sends the mission and returns its identifier.
	PublishMission(ctx context.Context, m Mission) (missionID string, err error)
}
