// Package simulation drives a dispatch engine tick by tick from a seeded
// arrival schedule until all work is done.
package simulation

import (
	"errors"
	"fmt"

	"github.com/kilianp07/warehouse-sim/core/arrival"
	"github.com/kilianp07/warehouse-sim/core/dispatch"
	"github.com/kilianp07/warehouse-sim/core/events"
	"github.com/kilianp07/warehouse-sim/core/logger"
	"github.com/kilianp07/warehouse-sim/core/model"
	"github.com/kilianp07/warehouse-sim/core/warehouse"
	"github.com/kilianp07/warehouse-sim/internal/eventbus"
)

// ErrAlreadyRun is returned when Run is called twice.
var ErrAlreadyRun = errors.New("simulation already run")

// Option customises a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger used for run and tick messages.
func WithLogger(l logger.Logger) Option { return func(s *Simulation) { s.log = l } }

// WithEventBus publishes run events on bus.
func WithEventBus(bus eventbus.Publisher) Option { return func(s *Simulation) { s.bus = bus } }

// WithRunID labels the events of the run.
func WithRunID(id string) Option { return func(s *Simulation) { s.runID = id } }

// WithScenario labels the events of the run with a scenario name.
func WithScenario(name string) Option { return func(s *Simulation) { s.scenario = name } }

// Simulation is one run. Agents are placed and the whole task stream is drawn
// at construction, in that order, from a generator seeded with Params.Seed.
type Simulation struct {
	params   Params
	engine   *dispatch.Engine
	schedule arrival.Schedule

	pending     []model.Task
	ticks       int
	idle        int
	operational int
	ran         bool

	log      logger.Logger
	bus      eventbus.Publisher
	runID    string
	scenario string
}

// New validates p, builds the grid, places the agents and draws the task
// stream.
func New(p Params, opts ...Option) (*Simulation, error) {
	p.SetDefaults()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	s := &Simulation{params: p}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logger.NopLogger{}
	}
	g, err := warehouse.New(p.Grid())
	if err != nil {
		return nil, err
	}
	rng := arrival.NewRand(p.Seed)
	agents, err := dispatch.PlaceAgents(rng, g, p.Agents)
	if err != nil {
		return nil, err
	}
	s.schedule, err = arrival.BuildSchedule(rng, g.NodeIDs(), p.Tasks, p.Lambda)
	if err != nil {
		return nil, err
	}
	s.engine, err = dispatch.NewEngine(g, agents, p.TieBreak, s.log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Run executes the simulation to termination. The first routing error aborts
// the run and is returned.
func (s *Simulation) Run() error {
	if s.ran {
		return ErrAlreadyRun
	}
	s.ran = true
	s.publish(events.RunStarted{RunID: s.runID, Scenario: s.scenario, Agents: s.params.Agents, Tasks: s.schedule.Total()})
	s.log.Infow("run started", map[string]any{
		"run_id":   s.runID,
		"scenario": s.scenario,
		"agents":   s.params.Agents,
		"tasks":    s.params.Tasks,
		"lambda":   s.params.Lambda,
		"seed":     s.params.Seed,
	})
	err := s.loop()
	res := s.Result()
	s.publish(events.RunFinished{
		RunID:            s.runID,
		Scenario:         s.scenario,
		UtilitarianCost:  res.UtilitarianCost,
		ProcessedTicks:   res.ProcessedTicks,
		IdleArrivalTicks: res.IdleArrivalTicks,
		OperationalTicks: res.OperationalTicks,
		Assignments:      res.Assignments,
		Err:              err,
	})
	if err != nil {
		s.log.Errorf("run %s aborted at tick %d: %v", s.runID, s.ticks, err)
		return err
	}
	s.log.Infow("run finished", map[string]any{
		"run_id":            s.runID,
		"scenario":          s.scenario,
		"cost":              res.UtilitarianCost,
		"processed_ticks":   res.ProcessedTicks,
		"idle_ticks":        res.IdleArrivalTicks,
		"operational_ticks": res.OperationalTicks,
	})
	return nil
}

func (s *Simulation) loop() error {
	for s.engine.AssignedCount() > 0 || s.ticks < s.schedule.Len() || len(s.pending) > 0 {
		if s.ticks < s.schedule.Len() {
			s.pending = append(s.pending, s.schedule[s.ticks]...)
		} else {
			s.idle++
		}

		done := 0
		for _, task := range s.pending {
			ok, err := s.engine.ProcessTask(task)
			if err != nil {
				return fmt.Errorf("tick %d: %w", s.ticks, err)
			}
			if !ok {
				break
			}
			done++
			s.publishAssignment()
		}
		s.pending = s.pending[done:]

		if s.engine.AssignedCount() > 0 {
			s.operational++
		}
		if err := s.engine.Tick(); err != nil {
			return fmt.Errorf("tick %d: %w", s.ticks, err)
		}
		s.log.Debugw("tick", map[string]any{
			"tick":     s.ticks,
			"pending":  len(s.pending),
			"assigned": s.engine.AssignedCount(),
		})
		s.publish(events.TickCompleted{
			RunID:           s.runID,
			Scenario:        s.scenario,
			Tick:            s.ticks,
			Assigned:        s.engine.AssignedCount(),
			Unassigned:      s.engine.UnassignedCount(),
			UtilitarianCost: s.engine.UtilitarianCost(),
		})
		s.ticks++
	}
	return nil
}

func (s *Simulation) publishAssignment() {
	if s.bus == nil {
		return
	}
	seq, a, ok := s.engine.LastAssignment()
	if !ok {
		return
	}
	s.bus.Publish(events.TaskAssigned{RunID: s.runID, Scenario: s.scenario, Seq: seq, Assignment: a})
}

func (s *Simulation) publish(ev eventbus.Event) {
	if s.bus != nil {
		s.bus.Publish(ev)
	}
}

// Params returns the parameters with defaults applied.
func (s *Simulation) Params() Params { return s.params }

// RunID returns the label set with WithRunID.
func (s *Simulation) RunID() string { return s.runID }

// Schedule returns the drawn task stream.
func (s *Simulation) Schedule() arrival.Schedule { return s.schedule }

// UtilitarianCost is the total traffic cost of the run.
func (s *Simulation) UtilitarianCost() float64 { return s.engine.UtilitarianCost() }

// ProcessedTicks is the number of loop iterations executed.
func (s *Simulation) ProcessedTicks() int { return s.ticks }

// IdleArrivalTicks counts the iterations that had no arrival batch.
func (s *Simulation) IdleArrivalTicks() int { return s.idle }

// OperationalTicks counts the iterations with at least one assigned agent
// after the assignment phase.
func (s *Simulation) OperationalTicks() int { return s.operational }

// Assignments returns the ordered assignment log.
func (s *Simulation) Assignments() []model.TaskAssignment { return s.engine.Assignments() }

// Engine exposes the underlying dispatch engine.
func (s *Simulation) Engine() *dispatch.Engine { return s.engine }
