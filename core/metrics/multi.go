package metrics

import "errors"

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the summary to every sink and joins their errors.
func (m *MultiSink) RecordRun(s RunSummary) error {
	var errs []error
	for _, sink := range m.Sinks {
		if err := sink.RecordRun(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordAssignment forwards to the sinks supporting it.
func (m *MultiSink) RecordAssignment(ev AssignmentEvent) error {
	var errs []error
	for _, sink := range m.Sinks {
		if rec, ok := sink.(AssignmentRecorder); ok {
			if err := rec.RecordAssignment(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// RecordTick forwards to the sinks supporting it.
func (m *MultiSink) RecordTick(ev TickEvent) error {
	var errs []error
	for _, sink := range m.Sinks {
		if rec, ok := sink.(TickRecorder); ok {
			if err := rec.RecordTick(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close closes the sinks holding resources.
func (m *MultiSink) Close() {
	for _, sink := range m.Sinks {
		if c, ok := sink.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
