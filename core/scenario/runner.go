package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/warehouse-sim/core/dispatch/logging"
	"github.com/kilianp07/warehouse-sim/core/logger"
	coremetrics "github.com/kilianp07/warehouse-sim/core/metrics"
	"github.com/kilianp07/warehouse-sim/core/monitoring"
	"github.com/kilianp07/warehouse-sim/core/simulation"
	"github.com/kilianp07/warehouse-sim/internal/eventbus"
)

// Entry is the outcome of one scenario of a batch.
type Entry struct {
	Scenario Scenario          `json:"scenario"`
	RunID    string            `json:"run_id"`
	Result   simulation.Result `json:"result"`
	Duration time.Duration     `json:"duration"`
}

// Report collects the entries of a batch in run order.
type Report struct {
	Started time.Time `json:"started"`
	Entries []Entry   `json:"entries"`
}

// Runner executes scenarios one after another.
type Runner struct {
	store logging.Store
	sink  coremetrics.MetricsSink
	bus   eventbus.Publisher
	log   logger.Logger
	newID func() string
	now   func() time.Time
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithStore persists the assignment log of every run.
func WithStore(s logging.Store) RunnerOption { return func(r *Runner) { r.store = s } }

// WithSink records a summary of every run.
func WithSink(s coremetrics.MetricsSink) RunnerOption { return func(r *Runner) { r.sink = s } }

// WithBus forwards run events to bus.
func WithBus(b eventbus.Publisher) RunnerOption { return func(r *Runner) { r.bus = b } }

// WithRunnerLogger sets the logger handed to the runner and its simulations.
func WithRunnerLogger(l logger.Logger) RunnerOption { return func(r *Runner) { r.log = l } }

// WithIDGenerator replaces the uuid run id generator.
func WithIDGenerator(f func() string) RunnerOption { return func(r *Runner) { r.newID = f } }

// NewRunner returns a Runner with the given options.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{newID: uuid.NewString, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run executes scenarios in order and stops at the first failure. The
// returned report holds the entries completed before the failure.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (Report, error) {
	rep := Report{Started: r.now()}
	for _, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		entry, err := r.runOne(ctx, sc)
		if err != nil {
			monitoring.CaptureException(err, map[string]string{
				"scenario": sc.Name,
				"run_id":   entry.RunID,
				"module":   "scenario",
			})
			return rep, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		rep.Entries = append(rep.Entries, entry)
	}
	return rep, nil
}

func (r *Runner) runOne(ctx context.Context, sc Scenario) (Entry, error) {
	entry := Entry{Scenario: sc, RunID: r.newID()}
	opts := []simulation.Option{
		simulation.WithRunID(entry.RunID),
		simulation.WithScenario(sc.Name),
	}
	if r.log != nil {
		opts = append(opts, simulation.WithLogger(r.log))
	}
	if r.bus != nil {
		opts = append(opts, simulation.WithEventBus(r.bus))
	}
	sim, err := simulation.New(sc.Params, opts...)
	if err != nil {
		return entry, err
	}
	start := r.now()
	if err := sim.Run(); err != nil {
		return entry, err
	}
	entry.Duration = r.now().Sub(start)
	entry.Result = sim.Result()

	if r.store != nil {
		logs := sim.Assignments()
		recs := make([]logging.AssignmentRecord, len(logs))
		for i, a := range logs {
			recs[i] = logging.NewRecord(entry.RunID, sc.Name, i, a, start)
		}
		if err := r.store.Append(ctx, recs...); err != nil {
			return entry, fmt.Errorf("store assignments: %w", err)
		}
	}
	if r.sink != nil {
		p := sim.Params()
		res := entry.Result
		if err := r.sink.RecordRun(coremetrics.RunSummary{
			RunID:             entry.RunID,
			Scenario:          sc.Name,
			Rows:              p.Rows,
			Cols:              p.Cols,
			Agents:            p.Agents,
			Tasks:             p.Tasks,
			OccupancyCost:     p.OccupancyCost,
			Lambda:            p.Lambda,
			Seed:              p.Seed,
			UtilitarianCost:   res.UtilitarianCost,
			ProcessedTicks:    res.ProcessedTicks,
			IdleArrivalTicks:  res.IdleArrivalTicks,
			OperationalTicks:  res.OperationalTicks,
			Assignments:       res.Assignments,
			AveragePathLength: res.AveragePathLength,
			Duration:          entry.Duration,
			Time:              start,
		}); err != nil && r.log != nil {
			r.log.Warnf("record run %s: %v", entry.RunID, err)
		}
	}
	if r.log != nil {
		r.log.Infow("scenario finished", map[string]any{
			"scenario": sc.Name,
			"run_id":   entry.RunID,
			"cost":     entry.Result.UtilitarianCost,
			"ticks":    entry.Result.ProcessedTicks,
		})
	}
	return entry, nil
}
