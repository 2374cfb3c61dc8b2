package mqtt

import (
	"context"
	"fmt"
	"sync"

	coremqtt "github.com/kilianp07/warehouse-sim/core/mqtt"
)

// MissionPublisher mirrors the core interface.
type MissionPublisher = coremqtt.MissionPublisher

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	Missions   []coremqtt.Mission
	FailAgents map[string]bool
	mu         sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{FailAgents: make(map[string]bool)}
}

// PublishMission records the mission or returns an error if configured to fail.
func (m *MockPublisher) PublishMission(_ context.Context, mission coremqtt.Mission) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAgents[mission.Agent] {
		return "", fmt.Errorf("%w: agent %s", coremqtt.ErrPublishFailed, mission.Agent)
	}
	if mission.MissionID == "" {
		mission.MissionID = fmt.Sprintf("mission-%s-%d", mission.RunID, mission.Seq)
	}
	m.Missions = append(m.Missions, mission)
	return mission.MissionID, nil
}

// Published returns a copy of the recorded missions.
func (m *MockPublisher) Published() []coremqtt.Mission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]coremqtt.Mission(nil), m.Missions...)
}
