package solvers

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/kilianp07/tecsched/core/instance"
	"github.com/kilianp07/tecsched/core/model"
)

// Ordering names a rule producing the initial job order of each machine.
type Ordering string

const (
	OrderShortestFirst Ordering = "spt"
	OrderLongestFirst  Ordering = "lpt"
	OrderIndex         Ordering = "index"
	OrderWarmStart     Ordering = "warm-start"
	OrderRandom        Ordering = "random"
)

// Valid reports whether o is a known rule. The empty rule means spt.
func (o Ordering) Valid() bool {
	switch o {
	case "", OrderShortestFirst, OrderLongestFirst, OrderIndex, OrderWarmStart, OrderRandom:
		return true
	}
	return false
}

// machineOrders returns one job order per machine. Equal keys keep job index
// order. With warm-start, jobs without a warm start go last.
func machineOrders(in *instance.Instance, o Ordering, warm model.StartTimes, rnd *rand.Rand) ([][]model.Job, error) {
	if !o.Valid() {
		return nil, fmt.Errorf("unknown ordering %q", o)
	}
	out := make([][]model.Job, in.MachinesCount)
	for m := range out {
		jobs := append([]model.Job(nil), in.MachineJobs(m)...)
		switch o {
		case "", OrderShortestFirst:
			sort.SliceStable(jobs, func(a, b int) bool { return jobs[a].ProcessingTime < jobs[b].ProcessingTime })
		case OrderLongestFirst:
			sort.SliceStable(jobs, func(a, b int) bool { return jobs[a].ProcessingTime > jobs[b].ProcessingTime })
		case OrderWarmStart:
			key := func(j model.Job) int {
				if s, ok := warm[j.Index]; ok {
					return s
				}
				return len(in.Intervals)
			}
			sort.SliceStable(jobs, func(a, b int) bool { return key(jobs[a]) < key(jobs[b]) })
		case OrderRandom:
			rnd.Shuffle(len(jobs), func(a, b int) { jobs[a], jobs[b] = jobs[b], jobs[a] })
		}
		out[m] = jobs
	}
	return out, nil
}

func cloneOrders(orders [][]model.Job) [][]model.Job {
	out := make([][]model.Job, len(orders))
	for m, o := range orders {
		out[m] = append([]model.Job(nil), o...)
	}
	return out
}
