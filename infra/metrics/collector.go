package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/warehouse-sim/core/events"
	coremetrics "github.com/kilianp07/warehouse-sim/core/metrics"
	"github.com/kilianp07/warehouse-sim/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled or the bus is closed. The returned
// channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	sub := bus.Subscribe()
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
				collect(sink, ev)
			}
		}
	}()
	return done
}

func collect(sink coremetrics.MetricsSink, ev eventbus.Event) {
	switch e := ev.(type) {
	case events.TaskAssigned:
		if r, ok := sink.(coremetrics.AssignmentRecorder); ok {
			_ = r.RecordAssignment(coremetrics.AssignmentEvent{
				RunID:    e.RunID,
				Scenario: e.Scenario,
				Seq:      e.Seq,
				Agent:    e.Assignment.Agent,
				Tick:     e.Assignment.Tick,
				Hops:     e.Assignment.Hops(),
				Cost:     e.Assignment.Cost,
				Time:     time.Now(),
			})
		}
	case events.TickCompleted:
		if r, ok := sink.(coremetrics.TickRecorder); ok {
			_ = r.RecordTick(coremetrics.TickEvent{
				RunID:           e.RunID,
				Scenario:        e.Scenario,
				Tick:            e.Tick,
				Assigned:        e.Assigned,
				Unassigned:      e.Unassigned,
				UtilitarianCost: e.UtilitarianCost,
				Time:            time.Now(),
			})
		}
	}
}
