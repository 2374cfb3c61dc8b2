// Package metrics defines the sinks recording simulation outcomes. Sinks
// like PromSink and InfluxSink record run summaries and can be combined with
// NewMultiSink. The factory helpers return a MultiSink automatically when
// multiple sinks are configured. Optional recorder interfaces receive the
// live per-tick and per-assignment events collected from the event bus.
package metrics
