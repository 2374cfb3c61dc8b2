package metrics

import (
	"errors"
	"testing"
)

type recordSink struct {
	runs, assignments, ticks int
	err                      error
}

func (r *recordSink) RecordRun(RunSummary) error {
	r.runs++
	return r.err
}

func (r *recordSink) RecordAssignment(AssignmentEvent) error {
	r.assignments++
	return nil
}

func (r *recordSink) RecordTick(TickEvent) error {
	r.ticks++
	return nil
}

type runOnly struct{ runs int }

func (r *runOnly) RecordRun(RunSummary) error {
	r.runs++
	return nil
}

// TestMultiSink ensures events are forwarded to all sinks.
func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &runOnly{}
	m := NewMultiSink(s1, s2)
	if err := m.RecordRun(RunSummary{}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := m.RecordAssignment(AssignmentEvent{}); err != nil {
		t.Fatalf("record assignment: %v", err)
	}
	if err := m.RecordTick(TickEvent{}); err != nil {
		t.Fatalf("record tick: %v", err)
	}
	if s1.runs != 1 || s1.assignments != 1 || s1.ticks != 1 || s2.runs != 1 {
		t.Fatalf("records not forwarded: %+v %+v", s1, s2)
	}
}

func TestMultiSinkKeepsGoingOnError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	err := NewMultiSink(s1, s2).RecordRun(RunSummary{})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if s2.runs != 1 {
		t.Fatalf("second sink skipped")
	}
}

type closeSink struct {
	runOnly
	closed bool
}

func (c *closeSink) Close() { c.closed = true }

func TestMultiSinkClose(t *testing.T) {
	c := &closeSink{}
	m := NewMultiSink(&runOnly{}, c)
	m.Close()
	if !c.closed {
		t.Fatal("expected sink to be closed")
	}
}
