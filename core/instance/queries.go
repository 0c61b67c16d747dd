package instance

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/kilianp07/tecsched/core/model"
)

var (
	// ErrTransitionUnsupported is returned when a schedule requires a
	// switching transition the instance does not support.
	ErrTransitionUnsupported = errors.New("transition unsupported")
	// ErrMissingStart is returned when a job has no assigned start time.
	ErrMissingStart = errors.New("job has no start time")
	// ErrOutsideHorizon is returned when a job would run outside the intervals.
	ErrOutsideHorizon = errors.New("job outside horizon")
)

// HasSwitchingCost reports whether the machine can stay out of processing
// from interval i until interval j.
func (in *Instance) HasSwitchingCost(i, j int) bool {
	_, ok := in.OptimalSwitchingCosts.At(i, j)
	return ok
}

// TotalEnergyCostOnInterval returns the energy cost of drawing power over the
// inclusive interval range [from, to]. An empty range costs nothing; indices
// outside the horizon are ignored.
func (in *Instance) TotalEnergyCostOnInterval(from, to, power int) int {
	if to < from {
		return 0
	}
	from = max(from, 0)
	to = min(to, len(in.Intervals)-1)
	perInterval := in.LengthInterval * power
	sum := 0
	for k := from; k <= to; k++ {
		sum += in.Intervals[k].EnergyCost * perInterval
	}
	return sum
}

// OrderedJobsOnMachines returns, per machine, the scheduled jobs sorted by
// start time. Jobs without a start are left out.
func (in *Instance) OrderedJobsOnMachines(starts model.StartTimes) [][]model.Job {
	out := make([][]model.Job, in.MachinesCount)
	for m := range out {
		jobs := make([]model.Job, 0, len(in.MachineJobs(m)))
		for _, j := range in.MachineJobs(m) {
			if starts.Has(j) {
				jobs = append(jobs, j)
			}
		}
		sort.SliceStable(jobs, func(a, b int) bool {
			return starts[jobs[a].Index] < starts[jobs[b].Index]
		})
		out[m] = jobs
	}
	return out
}

func (in *Instance) switching(i, j int) (int, error) {
	c, ok := in.OptimalSwitchingCosts.At(i, j)
	if !ok {
		return 0, fmt.Errorf("%w: [%d][%d]", ErrTransitionUnsupported, i, j)
	}
	return c, nil
}

// TotalEnergyCost evaluates a complete schedule: switching into the first job
// of every machine, between consecutive jobs, after the last job, and the On
// state cost of processing each job. Row 0 of the switching table is the
// start of the horizon, the last column of a row its end.
func (in *Instance) TotalEnergyCost(starts model.StartTimes) (int, error) {
	for _, j := range in.Jobs {
		if !starts.Has(j) {
			return 0, fmt.Errorf("%w: job %d", ErrMissingStart, j.ID)
		}
		if s := starts[j.Index]; s < 0 || j.Completion(s) >= len(in.Intervals) {
			return 0, fmt.Errorf("%w: job %d starts at %d", ErrOutsideHorizon, j.ID, s)
		}
	}
	tec := 0
	for _, jobs := range in.OrderedJobsOnMachines(starts) {
		if len(jobs) == 0 {
			c, err := in.switching(0, in.OptimalSwitchingCosts.LastCol(0))
			if err != nil {
				return 0, err
			}
			tec += c
			continue
		}

		c, err := in.switching(0, starts[jobs[0].Index])
		if err != nil {
			return 0, err
		}
		tec += c

		for k := 0; k+1 < len(jobs); k++ {
			from := jobs[k].Completion(starts[jobs[k].Index]) + 1
			c, err := in.switching(from, starts[jobs[k+1].Index])
			if err != nil {
				return 0, err
			}
			tec += c
		}

		last := jobs[len(jobs)-1]
		from := last.Completion(starts[last.Index]) + 1
		c, err = in.switching(from, in.OptimalSwitchingCosts.LastCol(from))
		if err != nil {
			return 0, err
		}
		tec += c

		for _, j := range jobs {
			s := starts[j.Index]
			tec += in.TotalEnergyCostOnInterval(s, j.Completion(s), in.OnPowerConsumption)
		}
	}
	return tec, nil
}

// GapLowerBound returns the lower bound on the cost of a gap spanning
// [s, e). The second result is false when the bound is undefined.
func (in *Instance) GapLowerBound(s, e int) (int, bool) {
	return in.GapsLowerBounds.At(s, e)
}

// UB returns the cost of the best-case packed schedule: all jobs back to back
// from the earliest On interval. It returns +Inf when such a schedule cannot
// exist.
func (in *Instance) UB() float64 {
	total := in.TotalProcessingTime()
	first := in.EarliestOnIntervalIdx
	if in.LatestOnIntervalIdx-first+1 < total {
		return math.Inf(1)
	}
	into, ok := in.OptimalSwitchingCosts.At(0, first)
	if !ok {
		return math.Inf(1)
	}
	out, ok := in.OptimalSwitchingCosts.At(first+total, len(in.Intervals)-1)
	if !ok {
		return math.Inf(1)
	}
	processing := 0
	if total > 0 {
		c, ok := in.cumulative(first, first+total-1)
		if !ok {
			return math.Inf(1)
		}
		processing = c * in.OnPowerConsumption
	}
	return float64(into + processing + out)
}

func (in *Instance) cumulative(from, to int) (int, bool) {
	if from < 0 || from >= len(in.CumulativeEnergyCost) {
		return 0, false
	}
	row := in.CumulativeEnergyCost[from]
	if to < from || to >= len(row) {
		return 0, false
	}
	return row[to], true
}
