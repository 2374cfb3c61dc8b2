// Package arrival generates the stochastic task stream of a simulation run.
//
// All sampling goes through one explicitly seeded generator so that a run is
// a pure function of its parameters.
package arrival

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/kilianp07/warehouse-sim/core/model"
)

// ErrNoNodes is returned when sampling from an empty node set.
var ErrNoNodes = errors.New("arrival: no nodes to sample from")

// NewRand returns the generator shared by placement, arrival and destination
// sampling for one run.
func NewRand(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// GenerateArrivalCounts returns per-tick task counts summing to totalTasks.
// Counts are Poisson(lambda) draws; the last element is cut down to the
// remaining amount, so its distribution is not Poisson.
func GenerateArrivalCounts(rng *rand.Rand, totalTasks int, lambda float64) ([]int, error) {
	if totalTasks < 0 {
		return nil, fmt.Errorf("total tasks must not be negative, got %d", totalTasks)
	}
	if !(lambda > 0) || math.IsInf(lambda, 0) {
		return nil, fmt.Errorf("lambda must be positive and finite, got %v", lambda)
	}
	dist := distuv.Poisson{Lambda: lambda, Src: rng}
	var counts []int
	sum := 0
	for sum < totalTasks {
		sample := int(dist.Rand())
		if sum+sample > totalTasks {
			counts = append(counts, totalTasks-sum)
			break
		}
		counts = append(counts, sample)
		sum += sample
	}
	return counts, nil
}

// SampleDestination picks a node uniformly without modifying nodes.
func SampleDestination(rng *rand.Rand, nodes []model.NodeID) (model.NodeID, error) {
	if len(nodes) == 0 {
		return model.NodeID{}, ErrNoNodes
	}
	return nodes[rng.IntN(len(nodes))], nil
}

// SampleDistinct draws k distinct nodes uniformly, in draw order.
func SampleDistinct(rng *rand.Rand, nodes []model.NodeID, k int) ([]model.NodeID, error) {
	if k > len(nodes) {
		return nil, fmt.Errorf("cannot draw %d distinct nodes out of %d", k, len(nodes))
	}
	pool := append([]model.NodeID(nil), nodes...)
	out := make([]model.NodeID, 0, k)
	for i := 0; i < k; i++ {
		j := rng.IntN(len(pool))
		out = append(out, pool[j])
		pool = append(pool[:j], pool[j+1:]...)
	}
	return out, nil
}

// Schedule holds the tasks arriving at each tick; index i is tick i.
type Schedule [][]model.Task

// Len returns the number of ticks covered by the schedule.
func (s Schedule) Len() int { return len(s) }

// Total returns the number of tasks in the schedule.
func (s Schedule) Total() int {
	n := 0
	for _, batch := range s {
		n += len(batch)
	}
	return n
}

// BuildSchedule draws the arrival counts and then one destination per task.
// Tasks of the same tick are sampled independently and may share a target.
func BuildSchedule(rng *rand.Rand, nodes []model.NodeID, totalTasks int, lambda float64) (Schedule, error) {
	counts, err := GenerateArrivalCounts(rng, totalTasks, lambda)
	if err != nil {
		return nil, err
	}
	sched := make(Schedule, len(counts))
	for tick, c := range counts {
		batch := make([]model.Task, c)
		for i := range batch {
			target, err := SampleDestination(rng, nodes)
			if err != nil {
				return nil, err
			}
			batch[i] = model.Task{Target: target, ArrivalTick: tick}
		}
		sched[tick] = batch
	}
	return sched, nil
}
