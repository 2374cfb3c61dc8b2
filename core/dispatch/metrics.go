package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	tasksAssigned   prometheus.Counter
	tasksDeferred   prometheus.Counter
	ticksProcessed  prometheus.Counter
	routeCost       prometheus.Histogram
	tickTrafficCost prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Counter, prometheus.Counter, prometheus.Counter, prometheus.Histogram, prometheus.Histogram) {
	assigned := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_tasks_assigned_total",
			Help: "Number of tasks matched to an agent",
		},
	)
	deferred := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_tasks_deferred_total",
			Help: "Number of assignment attempts that found no free agent",
		},
	)
	ticks := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_ticks_total",
			Help: "Number of engine ticks processed",
		},
	)
	route := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_route_cost",
			Help:    "Live cost of the winning route at assignment time",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
	)
	traffic := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_tick_traffic_cost",
			Help:    "Cost charged for occupied edges during one tick",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
	return assigned, deferred, ticks, route, traffic
}

func init() {
	tasksAssigned, tasksDeferred, ticksProcessed, routeCost, tickTrafficCost = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(tasksAssigned, tasksDeferred, ticksProcessed, routeCost, tickTrafficCost)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	tasksAssigned, tasksDeferred, ticksProcessed, routeCost, tickTrafficCost = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
