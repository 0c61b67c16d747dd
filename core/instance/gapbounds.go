package instance

import (
	"context"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/tecsched/core/model"
)

// InfeasibleGap marks a gap that no schedule can contain.
const InfeasibleGap = math.MaxInt32

type gapBounder struct {
	in       *Instance
	shortest int
	total    int
	cheapest []model.Interval
}

func newGapBounder(in *Instance) *gapBounder {
	b := &gapBounder{in: in, total: in.TotalProcessingTime()}
	for i, j := range in.Jobs {
		if i == 0 || j.ProcessingTime < b.shortest {
			b.shortest = j.ProcessingTime
		}
	}
	for _, iv := range in.Intervals {
		if iv.Index >= in.EarliestOnIntervalIdx && iv.Index <= in.LatestOnIntervalIdx {
			b.cheapest = append(b.cheapest, iv)
		}
	}
	sort.SliceStable(b.cheapest, func(a, c int) bool {
		return b.cheapest[a].EnergyCost < b.cheapest[c].EnergyCost
	})
	return b
}

// bound relaxes the jobs around the gap [begin, end): the shortest job is
// placed directly on each open side and the remaining processing time is
// spread preemptively over the cheapest On intervals left.
func (b *gapBounder) bound(begin, end int) int {
	in := b.in
	sw, ok := in.OptimalSwitchingCosts.At(begin, end)
	if !ok {
		return InfeasibleGap
	}
	if len(in.Jobs) < 2 {
		return sw
	}

	lastIdx := len(in.Intervals) - 1
	leftOccupied := begin-b.shortest < in.EarliestOnIntervalIdx
	rightOccupied := end+b.shortest-1 > in.LatestOnIntervalIdx
	if (begin == 1 && rightOccupied) ||
		(end == lastIdx && leftOccupied) ||
		(begin > 1 && end < lastIdx && (leftOccupied || rightOccupied)) {
		return InfeasibleGap
	}

	lb := sw
	remaining := b.total
	if begin > 1 {
		c, ok := in.cumulative(begin-b.shortest, begin-1)
		if !ok {
			return InfeasibleGap
		}
		lb += c * in.OnPowerConsumption
		remaining -= b.shortest
	}
	if end < lastIdx {
		c, ok := in.cumulative(end, end+b.shortest-1)
		if !ok {
			return InfeasibleGap
		}
		lb += c * in.OnPowerConsumption
		remaining -= b.shortest
	}

	placed := 0
	for _, iv := range b.cheapest {
		if placed >= remaining {
			break
		}
		if iv.Index < begin-b.shortest || iv.Index >= end+b.shortest {
			lb += iv.EnergyCost * in.OnPowerConsumption
			placed++
		}
	}
	if placed < remaining {
		return InfeasibleGap
	}
	return lb
}

// computeGapsLowerBounds fills the gap bound for every pair begin <= end.
// Requires OptimalSwitchingCosts and CumulativeEnergyCost.
func computeGapsLowerBounds(ctx context.Context, in *Instance, workers int) (Table, error) {
	n := len(in.Intervals)
	bounds := NewTable(n+1, n+1)
	b := newGapBounder(in)

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for begin := 0; begin <= n; begin++ {
		begin := begin
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for end := begin; end <= n; end++ {
				bounds.Set(begin, end, b.bound(begin, end))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bounds, nil
}
