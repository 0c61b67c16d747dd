package costmodel

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/tecsched/core/instance"
	"github.com/kilianp07/tecsched/core/model"
)

func testInstance(t *testing.T, jobs ...model.Job) *instance.Instance {
	t.Helper()
	in := &instance.Instance{
		MachinesCount:         1,
		Jobs:                  jobs,
		LengthInterval:        1,
		OnPowerConsumption:    2,
		EarliestOnIntervalIdx: 2,
		LatestOnIntervalIdx:   9,
		OptimalSwitchingCosts: instance.NewTable(13, 13),
	}
	for i := 0; i < 12; i++ {
		in.Intervals = append(in.Intervals, model.Interval{Index: i, Start: i, End: i + 1, EnergyCost: 1})
	}
	require.NoError(t, in.Reindex())
	return in
}

func threeJobs() []model.Job {
	return []model.Job{
		{ID: 100, Index: 0, ProcessingTime: 2},
		{ID: 101, Index: 1, ProcessingTime: 3},
		{ID: 102, Index: 2, ProcessingTime: 2},
	}
}

func TestGapsWithoutJobsCoverHorizon(t *testing.T) {
	m := New(testInstance(t), Options{})
	assert.Equal(t, []Gap{{Start: 1, End: 11}}, m.Gaps(nil))
}

func TestGapsAroundJobs(t *testing.T) {
	m := New(testInstance(t, threeJobs()...), Options{})
	starts := model.StartTimes{0: 3, 1: 7, 2: 5}

	assert.Equal(t, []Gap{{1, 3}, {10, 11}}, m.Gaps(starts))
	assert.Equal(t, map[int][]int{2: {1}, 1: {10}}, m.GapsStartsByLength(starts, true))
}

func TestGapsFirstJobAtHorizonStart(t *testing.T) {
	m := New(testInstance(t, threeJobs()...), Options{})
	starts := model.StartTimes{0: 1, 2: 5, 1: 8}
	assert.Equal(t, []Gap{{3, 5}, {7, 8}}, m.Gaps(starts))
}

func TestGapsStartsByLengthSorted(t *testing.T) {
	jobs := []model.Job{
		{ID: 1, Index: 0, ProcessingTime: 1},
		{ID: 2, Index: 1, ProcessingTime: 1},
	}
	m := New(testInstance(t, jobs...), Options{})
	// gaps: [1,3) [4,6) [7,11)
	got := m.GapsStartsByLength(model.StartTimes{0: 6, 1: 3}, true)
	assert.Equal(t, map[int][]int{2: {1, 4}, 4: {7}}, got)
}

func TestValidStartTimeRanges(t *testing.T) {
	m := New(testInstance(t, threeJobs()...), Options{})
	assert.Equal(t, map[int]StartRange{
		0: {2, 9},
		1: {2, 8},
		2: {2, 9},
	}, m.ValidStartTimeRanges())
}

func TestValidStartTimeRangesEndAtLatestOnInterval(t *testing.T) {
	in := testInstance(t, threeJobs()...)
	m := New(in, Options{})
	for _, j := range in.Jobs {
		r := m.ValidStartTimeRanges()[j.Index]
		last := r.End - 1
		assert.True(t, r.Contains(last))
		assert.Equal(t, in.LatestOnIntervalIdx, j.Completion(last), "job %d", j.ID)
		assert.False(t, r.Contains(r.End))
		assert.Greater(t, j.Completion(r.End), in.LatestOnIntervalIdx)
	}
}

func TestValidStartTimeRangesRelaxedOrdering(t *testing.T) {
	m := New(testInstance(t, threeJobs()...), Options{RelaxedJobsOrdering: true})
	got := m.ValidStartTimeRanges()
	assert.Equal(t, StartRange{2, 7}, got[0])
	assert.Equal(t, StartRange{4, 9}, got[2])
	assert.Equal(t, StartRange{2, 8}, got[1])

	assert.Equal(t, []model.Job{threeJobs()[0], threeJobs()[2]}, m.JobsByLength()[2])
}

func TestCheckWarmStart(t *testing.T) {
	m := New(testInstance(t, threeJobs()...), Options{RelaxedJobsOrdering: true})
	require.NoError(t, m.CheckWarmStart(model.StartTimes{0: 2, 2: 4, 1: 6}))

	err := m.CheckWarmStart(model.StartTimes{0: 2, 2: 3})
	assert.True(t, errors.Is(err, ErrWarmStartPruned))

	err = m.CheckWarmStart(model.StartTimes{7: 2})
	assert.ErrorIs(t, err, ErrWarmStartPruned)
}

func TestUpperBound(t *testing.T) {
	in := testInstance(t, threeJobs()...)
	m := New(in, Options{})
	starts := model.StartTimes{0: 2, 2: 4, 1: 6}

	assert.True(t, math.IsInf(m.UpperBound(nil), 1))
	assert.True(t, math.IsInf(m.UpperBound(starts), 1), "missing transitions")

	in.OptimalSwitchingCosts.Set(0, 2, 4)
	in.OptimalSwitchingCosts.Set(4, 4, 0)
	in.OptimalSwitchingCosts.Set(6, 6, 0)
	in.OptimalSwitchingCosts.Set(9, 12, 6)
	assert.Equal(t, 24.0, m.UpperBound(starts))
	assert.True(t, math.IsInf(m.UpperBound(model.StartTimes{0: 2, 2: 4}), 1), "partial warm start")
}
