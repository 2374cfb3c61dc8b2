package metrics

import (
	coremetrics "github.com/kilianp07/warehouse-sim/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records simulation outcomes in Prometheus metrics.
type PromSink struct {
	runs        *prometheus.CounterVec
	cost        *prometheus.GaugeVec
	ticks       *prometheus.GaugeVec
	pathLength  *prometheus.GaugeVec
	hops        *prometheus.HistogramVec
	liveAgents  *prometheus.GaugeVec
	runDuration *prometheus.HistogramVec
}

// NewPromSink registers simulation metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	_ = cfg
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "whsim_runs_total",
		Help: "Total number of finished simulation runs",
	}, []string{"scenario"})); err != nil {
		return nil, err
	}
	if s.cost, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "whsim_run_utilitarian_cost",
		Help: "Utilitarian cost of the last run of a scenario",
	}, []string{"scenario"})); err != nil {
		return nil, err
	}
	if s.ticks, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "whsim_run_ticks",
		Help: "Tick counters of the last run of a scenario",
	}, []string{"scenario", "kind"})); err != nil {
		return nil, err
	}
	if s.pathLength, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "whsim_run_average_path_length",
		Help: "Mean node count of assignment paths of the last run of a scenario",
	}, []string{"scenario"})); err != nil {
		return nil, err
	}
	if s.hops, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "whsim_assignment_hops",
		Help:    "Edges to traverse per assigned task",
		Buckets: prometheus.LinearBuckets(0, 2, 12),
	}, []string{"scenario"})); err != nil {
		return nil, err
	}
	if s.liveAgents, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "whsim_agents",
		Help: "Agents per pool after the last observed tick",
	}, []string{"scenario", "pool"})); err != nil {
		return nil, err
	}
	if s.runDuration, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "whsim_run_duration_seconds",
		Help:    "Wall time of a simulation run",
		Buckets: prometheus.DefBuckets,
	}, []string{"scenario"})); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordRun stores the outcome of a finished run.
func (s *PromSink) RecordRun(r coremetrics.RunSummary) error {
	s.runs.WithLabelValues(r.Scenario).Inc()
	s.cost.WithLabelValues(r.Scenario).Set(r.UtilitarianCost)
	s.ticks.WithLabelValues(r.Scenario, "processed").Set(float64(r.ProcessedTicks))
	s.ticks.WithLabelValues(r.Scenario, "idle_arrival").Set(float64(r.IdleArrivalTicks))
	s.ticks.WithLabelValues(r.Scenario, "operational").Set(float64(r.OperationalTicks))
	s.pathLength.WithLabelValues(r.Scenario).Set(r.AveragePathLength)
	s.runDuration.WithLabelValues(r.Scenario).Observe(r.Duration.Seconds())
	return nil
}

// RecordAssignment observes the hop count of a live assignment.
func (s *PromSink) RecordAssignment(ev coremetrics.AssignmentEvent) error {
	s.hops.WithLabelValues(ev.Scenario).Observe(float64(ev.Hops))
	return nil
}

// RecordTick sets the pool gauges.
func (s *PromSink) RecordTick(ev coremetrics.TickEvent) error {
	s.liveAgents.WithLabelValues(ev.Scenario, "assigned").Set(float64(ev.Assigned))
	s.liveAgents.WithLabelValues(ev.Scenario, "unassigned").Set(float64(ev.Unassigned))
	return nil
}
