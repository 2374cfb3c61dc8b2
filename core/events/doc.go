// Package events defines the simulation events emitted on the event bus.
//
// Available event types:
//   - RunStarted: a simulation run begins
//   - TaskAssigned: a task was matched to an agent
//   - TickCompleted: the engine advanced one tick
//   - RunFinished: the run reached its terminal state
package events
