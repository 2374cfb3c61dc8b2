package mqtt

import (
	"context"

	"github.com/kilianp07/warehouse-sim/core/events"
	"github.com/kilianp07/warehouse-sim/core/logger"
	coremqtt "github.com/kilianp07/warehouse-sim/core/mqtt"
	"github.com/kilianp07/warehouse-sim/internal/eventbus"
)

// StartMissionForwarder publishes a mission for every TaskAssigned event on
// the bus. It stops when ctx is canceled or the bus is closed; the returned
// channel is closed once it has exited.
func StartMissionForwarder(ctx context.Context, bus eventbus.EventBus, pub coremqtt.MissionPublisher, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || pub == nil {
		close(done)
		return done
	}
	sub := bus.SubscribeBlocking()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				e, ok := ev.(events.TaskAssigned)
				if !ok {
					continue
				}
				m := coremqtt.NewMission(e.RunID, e.Scenario, e.Seq, e.Assignment)
				if _, err := pub.PublishMission(ctx, m); err != nil && log != nil {
					log.Errorf("mission %s/%d for %s: %v", e.RunID, e.Seq, m.Agent, err)
				}
			}
		}
	}()
	return done
}
