// Package costmodel derives the schedule-level quantities solver adapters
// consume: gaps between jobs, valid start windows and upper bounds.
package costmodel

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/kilianp07/tecsched/core/instance"
	"github.com/kilianp07/tecsched/core/model"
)

// ErrWarmStartPruned is returned when a warm start assigns a job to a start
// interval its valid range excludes.
var ErrWarmStartPruned = errors.New("warm start pruned by start time ranges")

// Options tunes the search-space reduction.
type Options struct {
	// RelaxedJobsOrdering orders jobs of equal processing time by index and
	// tightens each job's window by its rank.
	RelaxedJobsOrdering bool `json:"RelaxedJobsOrdering" yaml:"RelaxedJobsOrdering" mapstructure:"RelaxedJobsOrdering"`
}

// Model answers cost queries over a single instance.
type Model struct {
	inst *instance.Instance
	opts Options
}

// New returns a Model over inst.
func New(inst *instance.Instance, opts Options) *Model {
	return &Model{inst: inst, opts: opts}
}

// Instance returns the underlying instance.
func (m *Model) Instance() *instance.Instance { return m.inst }

// Gap is an uncovered span [Start, End) of the horizon.
type Gap struct {
	Start int
	End   int
}

// Length returns the number of intervals in the gap.
func (g Gap) Length() int { return g.End - g.Start }

// Gaps returns the spans not covered by any scheduled job, in horizon order.
// Interval 0 and the last interval are sentinels and never part of a gap.
func (m *Model) Gaps(starts model.StartTimes) []Gap {
	last := len(m.inst.Intervals) - 1
	type span struct{ s, e int }
	spans := make([]span, 0, len(starts))
	for _, j := range m.inst.Jobs {
		if s, ok := starts[j.Index]; ok {
			spans = append(spans, span{s, s + j.ProcessingTime})
		}
	}
	if len(spans) == 0 {
		return []Gap{{Start: 1, End: last}}
	}
	sort.SliceStable(spans, func(a, b int) bool { return spans[a].s < spans[b].s })

	gaps := []Gap{}
	if spans[0].s > 1 {
		gaps = append(gaps, Gap{Start: 1, End: spans[0].s})
	}
	end := spans[0].e
	for _, sp := range spans[1:] {
		if sp.s > end {
			gaps = append(gaps, Gap{Start: end, End: sp.s})
		}
		end = max(end, sp.e)
	}
	if end < last {
		gaps = append(gaps, Gap{Start: end, End: last})
	}
	return gaps
}

// GapsStartsByLength groups gap starts by gap length. With sorted set, every
// group is in ascending order.
func (m *Model) GapsStartsByLength(starts model.StartTimes, sorted bool) map[int][]int {
	out := map[int][]int{}
	for _, g := range m.Gaps(starts) {
		out[g.Length()] = append(out[g.Length()], g.Start)
	}
	if sorted {
		for _, s := range out {
			sort.Ints(s)
		}
	}
	return out
}

// JobsByLength groups jobs by processing time, each group in index order.
func (m *Model) JobsByLength() map[int][]model.Job {
	out := map[int][]model.Job{}
	for _, j := range m.inst.Jobs {
		out[j.ProcessingTime] = append(out[j.ProcessingTime], j)
	}
	return out
}

// StartRange is a half-open window [Begin, End) of start intervals.
type StartRange struct {
	Begin int
	End   int
}

// Contains reports whether start lies in the window.
func (r StartRange) Contains(start int) bool { return start >= r.Begin && start < r.End }

// Empty reports whether no start is allowed.
func (r StartRange) Empty() bool { return r.End <= r.Begin }

// ValidStartTimeRanges returns, per job index, the window in which the job
// may start so that it completes inside the On window.
func (m *Model) ValidStartTimeRanges() map[int]StartRange {
	earliest, latest := m.inst.EarliestOnIntervalIdx, m.inst.LatestOnIntervalIdx
	out := make(map[int]StartRange, len(m.inst.Jobs))
	// latest is inclusive: a job of length p may still start at latest-p+1.
	if !m.opts.RelaxedJobsOrdering {
		for _, j := range m.inst.Jobs {
			out[j.Index] = StartRange{Begin: earliest, End: latest - j.ProcessingTime + 2}
		}
		return out
	}
	for p, group := range m.JobsByLength() {
		n := len(group)
		for pos, j := range group {
			out[j.Index] = StartRange{
				Begin: earliest + pos*p,
				End:   latest - (n-pos)*p + 2,
			}
		}
	}
	return out
}

// UpperBound returns the cost of the warm start, or +Inf when there is none
// or it cannot be evaluated. A partial warm start that leaves any job without
// a start cannot be evaluated and yields +Inf.
func (m *Model) UpperBound(starts model.StartTimes) float64 {
	if len(starts) == 0 {
		return math.Inf(1)
	}
	tec, err := m.inst.TotalEnergyCost(starts)
	if err != nil {
		return math.Inf(1)
	}
	return float64(tec)
}

// CheckWarmStart fails when a warm start places a job outside its valid
// start range.
func (m *Model) CheckWarmStart(starts model.StartTimes) error {
	ranges := m.ValidStartTimeRanges()
	for _, st := range starts.Indexed() {
		r, ok := ranges[st.JobIndex]
		if !ok {
			return fmt.Errorf("%w: unknown job index %d", ErrWarmStartPruned, st.JobIndex)
		}
		if !r.Contains(st.StartTime) {
			return fmt.Errorf("%w: job %d starts at %d outside [%d,%d)",
				ErrWarmStartPruned, st.JobIndex, st.StartTime, r.Begin, r.End)
		}
	}
	return nil
}

// Options returns the options the model was built with.
func (m *Model) Options() Options { return m.opts }
