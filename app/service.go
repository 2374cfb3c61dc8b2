// Package app wires the simulation batch to its configured adapters.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/warehouse-sim/config"
	"github.com/kilianp07/warehouse-sim/core/dispatch/logging"
	coremetrics "github.com/kilianp07/warehouse-sim/core/metrics"
	coremon "github.com/kilianp07/warehouse-sim/core/monitoring"
	coremqtt "github.com/kilianp07/warehouse-sim/core/mqtt"
	"github.com/kilianp07/warehouse-sim/core/scenario"
	"github.com/kilianp07/warehouse-sim/core/simulation"
	"github.com/kilianp07/warehouse-sim/infra/logger"
	"github.com/kilianp07/warehouse-sim/infra/metrics"
	"github.com/kilianp07/warehouse-sim/infra/monitoring"
	"github.com/kilianp07/warehouse-sim/infra/mqtt"
	"github.com/kilianp07/warehouse-sim/internal/eventbus"
	"github.com/kilianp07/warehouse-sim/pkg/export"
)

// Service runs scenario batches with the configured metrics sinks, log store
// and mission feed.
type Service struct {
	cfg       *config.Config
	log       logger.Logger
	sink      coremetrics.MetricsSink
	store     logging.Store
	bus       *eventbus.Bus
	publisher coremqtt.MissionPublisher
	paho      *mqtt.PahoClient

	startOnce sync.Once
	done      []<-chan struct{}
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := logging.Open(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("assignment store: %w", err)
	}
	svc := &Service{
		cfg:   cfg,
		log:   logg,
		sink:  sink,
		store: store,
		bus:   eventbus.New(eventbus.WithBuffer(cfg.Events.Buffer)),
	}
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.paho = client
		svc.publisher = client
	}
	return svc, nil
}

// WithPublisher replaces the mission publisher. It must be called before the
// first run.
func (s *Service) WithPublisher(p coremqtt.MissionPublisher) *Service {
	s.publisher = p
	return s
}

// Store returns the assignment log store.
func (s *Service) Store() logging.Store { return s.store }

func (s *Service) start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.done = append(s.done, metrics.StartEventCollector(ctx, s.bus, s.sink))
		if s.publisher != nil {
			s.done = append(s.done, mqtt.StartMissionForwarder(ctx, s.bus, s.publisher, logger.New("mission-forwarder")))
		}
		if port := s.cfg.Metrics.PrometheusPort; port != "" {
			go func() {
				if err := metrics.StartPromServer(ctx, port); err != nil {
					s.log.Errorf("prom server: %v", err)
				}
			}()
		}
	})
}

func (s *Service) runner() *scenario.Runner {
	return scenario.NewRunner(
		scenario.WithStore(s.store),
		scenario.WithSink(s.sink),
		scenario.WithBus(s.bus),
		scenario.WithRunnerLogger(logger.New("simulation")),
	)
}

// Scenarios loads the configured scenario table and applies the name filter.
func (s *Service) Scenarios() ([]scenario.Scenario, error) {
	tbl, err := scenario.LoadOrDefault(s.cfg.Scenarios.File)
	if err != nil {
		return nil, err
	}
	return tbl.Select(s.cfg.Scenarios.Names...)
}

// Run executes the configured batch and writes the report files. The report
// of the scenarios completed before a failure is still written.
func (s *Service) Run(ctx context.Context) (scenario.Report, error) {
	scs, err := s.Scenarios()
	if err != nil {
		return scenario.Report{}, err
	}
	s.start(ctx)
	begin := time.Now()
	rep, runErr := s.runner().Run(ctx, scs)
	s.log.Infof("batch of %d scenarios finished in %s", len(rep.Entries), time.Since(begin))
	if len(rep.Entries) > 0 && len(s.cfg.Report.Formats) > 0 {
		paths, err := export.WriteFiles(s.cfg.Report.Dir, s.cfg.Report.Formats, rep)
		if err != nil {
			s.log.Errorf("write report: %v", err)
			if runErr == nil {
				runErr = err
			}
		}
		for _, p := range paths {
			s.log.Infof("report written to %s", p)
		}
	}
	return rep, runErr
}

// Simulate runs a single parameter set under the given scenario name.
func (s *Service) Simulate(ctx context.Context, name string, p simulation.Params) (scenario.Entry, error) {
	s.start(ctx)
	rep, err := s.runner().Run(ctx, []scenario.Scenario{{Name: name, Params: p}})
	if err != nil {
		return scenario.Entry{}, err
	}
	return rep.Entries[0], nil
}

// Close drains the event consumers and releases resources held by the
// service.
func (s *Service) Close() error {
	s.bus.Close()
	for _, d := range s.done {
		<-d
	}
	if s.paho != nil {
		s.paho.Disconnect()
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	coremon.Flush(2 * time.Second)
	return s.store.Close()
}
