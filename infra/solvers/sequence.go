package solvers

import (
	"context"
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/kilianp07/tecsched/core/costmodel"
	"github.com/kilianp07/tecsched/core/instance"
	"github.com/kilianp07/tecsched/core/model"
)

// sequencer computes the cheapest start times of a fixed job order on one
// machine. The search is a shortest path over a layered graph: for each
// position a start layer and a completion layer indexed by interval.
type sequencer struct {
	in     *instance.Instance
	ranges map[int]costmodel.StartRange
}

func newSequencer(in *instance.Instance, costs *costmodel.Model) *sequencer {
	return &sequencer{in: in, ranges: costs.ValidStartTimeRanges()}
}

type seqGraph struct {
	g    *simple.WeightedDirectedGraph
	cols int64
}

func (s *seqGraph) source() int64 { return 0 }

func (s *seqGraph) start(pos, col int) int64 { return 1 + int64(2*pos)*s.cols + int64(col) }

func (s *seqGraph) completion(pos, col int) int64 { return 1 + int64(2*pos+1)*s.cols + int64(col) }

func (s *seqGraph) sink(n int) int64 { return 1 + int64(2*n)*s.cols }

func (s *seqGraph) edge(from, to int64, w int) {
	for _, id := range []int64{from, to} {
		if s.g.Node(id) == nil {
			s.g.AddNode(simple.Node(id))
		}
	}
	s.g.SetWeightedEdge(s.g.NewWeightedEdge(simple.Node(from), simple.Node(to), float64(w)))
}

// schedule returns the start times of order and their cost. ok is false when
// no schedule respects the order.
func (sq *sequencer) schedule(ctx context.Context, order []model.Job) (model.StartTimes, int, bool, error) {
	in := sq.in
	osc := in.OptimalSwitchingCosts
	if len(order) == 0 {
		c, ok := osc.At(0, osc.LastCol(0))
		return model.StartTimes{}, c, ok, nil
	}

	cols := len(in.Intervals)
	sg := &seqGraph{g: simple.NewWeightedDirectedGraph(0, math.Inf(1)), cols: int64(cols)}
	sg.g.AddNode(simple.Node(sg.source()))

	remaining := make([]int, len(order))
	total := 0
	for k := len(order) - 1; k >= 0; k-- {
		total += order[k].ProcessingTime
		remaining[k] = total
	}

	for t := 1; t < cols; t++ {
		if !sq.allowed(order[0], t) {
			continue
		}
		if c, ok := osc.At(0, t); ok {
			sg.edge(sg.source(), sg.start(0, t), c)
		}
	}

	last := len(order) - 1
	for k, j := range order {
		if err := ctx.Err(); err != nil {
			return nil, 0, false, err
		}
		for t := 0; t < cols; t++ {
			if sg.g.Node(sg.start(k, t)) == nil {
				continue
			}
			// the remaining jobs no longer fit
			if t+remaining[k]-1 > in.LatestOnIntervalIdx {
				break
			}
			c := t + j.ProcessingTime
			if c >= cols {
				continue
			}
			sg.edge(sg.start(k, t), sg.completion(k, c), in.TotalEnergyCostOnInterval(t, c-1, in.OnPowerConsumption))
		}
		for c := 0; c < cols; c++ {
			if sg.g.Node(sg.completion(k, c)) == nil {
				continue
			}
			if k == last {
				if w, ok := osc.At(c, osc.LastCol(c)); ok {
					sg.edge(sg.completion(k, c), sg.sink(len(order)), w)
				}
				continue
			}
			for t := c; t < cols; t++ {
				if !sq.allowed(order[k+1], t) {
					continue
				}
				if w, ok := osc.At(c, t); ok {
					sg.edge(sg.completion(k, c), sg.start(k+1, t), w)
				}
			}
		}
	}

	if sg.g.Node(sg.sink(len(order))) == nil {
		return nil, 0, false, nil
	}
	nodes, weight := path.DijkstraFrom(simple.Node(sg.source()), sg.g).To(sg.sink(len(order)))
	if len(nodes) == 0 || math.IsInf(weight, 1) {
		return nil, 0, false, nil
	}
	starts := make(model.StartTimes, len(order))
	for k, j := range order {
		id := nodes[1+2*k].ID()
		starts[j.Index] = int(id - sg.start(k, 0))
	}
	return starts, int(math.Round(weight)), true, nil
}

func (sq *sequencer) allowed(j model.Job, t int) bool {
	r, ok := sq.ranges[j.Index]
	return ok && r.Contains(t)
}

// scheduleAll sequences every machine independently and sums the costs.
func (sq *sequencer) scheduleAll(ctx context.Context, orders [][]model.Job) (model.StartTimes, int, bool, error) {
	starts := make(model.StartTimes, len(sq.in.Jobs))
	total := 0
	for _, order := range orders {
		s, c, ok, err := sq.schedule(ctx, order)
		if err != nil || !ok {
			return nil, 0, false, err
		}
		for idx, t := range s {
			starts[idx] = t
		}
		total += c
	}
	return starts, total, true, nil
}
