package scenario

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/warehouse-sim/core/dispatch/logging"
	coremetrics "github.com/kilianp07/warehouse-sim/core/metrics"
	"github.com/kilianp07/warehouse-sim/core/monitoring"
	"github.com/kilianp07/warehouse-sim/core/simulation"
	"github.com/kilianp07/warehouse-sim/infra/logger"
)

type captureSink struct{ runs []coremetrics.RunSummary }

func (c *captureSink) RecordRun(s coremetrics.RunSummary) error {
	c.runs = append(c.runs, s)
	return nil
}

type captureMonitor struct{ tags map[string]string }

func (c *captureMonitor) CaptureException(_ error, tags map[string]string) { c.tags = tags }
func (c *captureMonitor) CapturePanic(any)                                  {}
func (c *captureMonitor) Flush(time.Duration)                               {}

func small(name string, lambda float64) Scenario {
	return Scenario{Name: name, Params: simulation.Params{
		Rows: 3, Cols: 3, EdgeBaseCost: 1, OccupancyCost: 0.1,
		Agents: 3, Tasks: 20, Lambda: lambda, Seed: 7,
	}}
}

func sequentialIDs() func() string {
	n := 0
	return func() string { n++; return fmt.Sprintf("run-%d", n) }
}

func TestRunnerBatch(t *testing.T) {
	store, err := logging.Open(logging.Config{Backend: logging.BackendJSONL, Path: filepath.Join(t.TempDir(), "a.jsonl")})
	require.NoError(t, err)
	defer store.Close()
	sink := &captureSink{}

	r := NewRunner(
		WithStore(store),
		WithSink(sink),
		WithRunnerLogger(logger.NopLogger{}),
		WithIDGenerator(sequentialIDs()),
	)
	rep, err := r.Run(context.Background(), []Scenario{small("a", 1), small("b", 2)})
	require.NoError(t, err)
	require.Len(t, rep.Entries, 2)
	assert.Equal(t, "run-1", rep.Entries[0].RunID)
	assert.Equal(t, "b", rep.Entries[1].Scenario.Name)

	for _, e := range rep.Entries {
		assert.Equal(t, 20, e.Result.Assignments)
		assert.Greater(t, e.Result.ProcessedTicks, 0)
	}

	require.Len(t, sink.runs, 2)
	assert.Equal(t, "a", sink.runs[0].Scenario)
	assert.Equal(t, rep.Entries[0].Result.UtilitarianCost, sink.runs[0].UtilitarianCost)
	assert.Equal(t, 3, sink.runs[1].Agents)

	recs, err := store.Query(context.Background(), logging.Query{RunID: "run-2"})
	require.NoError(t, err)
	require.Len(t, recs, 20)
	assert.Equal(t, "b", recs[0].Scenario)
	assert.Equal(t, 0, recs[0].Seq)
}

func TestRunnerMatchesSimulation(t *testing.T) {
	sc := small("a", 1.5)
	rep, err := NewRunner().Run(context.Background(), []Scenario{sc})
	require.NoError(t, err)

	sim, err := simulation.New(sc.Params)
	require.NoError(t, err)
	require.NoError(t, sim.Run())
	assert.Equal(t, sim.Result(), rep.Entries[0].Result)
}

func TestRunnerStopsOnFailure(t *testing.T) {
	mon := &captureMonitor{}
	monitoring.Init(mon)
	defer monitoring.Init(monitoring.NopMonitor{})

	bad := small("bad", 1)
	bad.Agents = 100
	rep, err := NewRunner(WithIDGenerator(sequentialIDs())).Run(context.Background(), []Scenario{small("a", 1), bad, small("c", 1)})
	require.Error(t, err)
	assert.Len(t, rep.Entries, 1)
	assert.Equal(t, "bad", mon.tags["scenario"])
	assert.Equal(t, "run-2", mon.tags["run_id"])
}

func TestRunnerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := NewRunner().Run(ctx, []Scenario{small("a", 1)})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, rep.Entries)
}
