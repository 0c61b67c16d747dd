package instance

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// layeredGraph is a time-expanded state graph: one layer per interval, one
// node per machine state in every layer, plus a sink after the horizon.
type layeredGraph struct {
	g      *simple.WeightedDirectedGraph
	states int
	rows   int
}

func newLayeredGraph(rows, states int) *layeredGraph {
	lg := &layeredGraph{
		g:      simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		states: states,
		rows:   rows,
	}
	for id := int64(0); id <= lg.sink(); id++ {
		lg.g.AddNode(simple.Node(id))
	}
	return lg
}

func (lg *layeredGraph) node(row, state int) int64 { return int64(row*lg.states + state) }

func (lg *layeredGraph) sink() int64 { return int64(lg.rows * lg.states) }

func (lg *layeredGraph) addEdge(from, to int64, weight int) {
	lg.g.SetWeightedEdge(lg.g.NewWeightedEdge(simple.Node(from), simple.Node(to), float64(weight)))
}

// stateGraph builds the layered graph of every allowed state transition. In
// interval 0 the machine can only remain in base off; after the last interval
// it must be in base off to reach the sink.
func stateGraph(in *Instance) *layeredGraph {
	rows := len(in.Intervals)
	lg := newLayeredGraph(rows, len(in.States))
	base := in.BaseOffStateIdx
	for row := 0; row < rows; row++ {
		if row == 0 {
			addTransition(in, lg, row, base, base)
			continue
		}
		for from := range in.States {
			for to := range in.States {
				addTransition(in, lg, row, from, to)
			}
		}
	}
	last := in.Intervals[rows-1]
	lg.addEdge(lg.node(rows-1, base), lg.sink(), last.EnergyCost*in.OffPowerConsumption[base])
	return lg
}

func addTransition(in *Instance, lg *layeredGraph, row, from, to int) {
	t, ok := in.StateDiagramTime.At(from, to)
	if !ok {
		return
	}
	power := in.StatePowerConsumption[from]
	if from == to {
		t = 1
	} else {
		p, ok := in.StateDiagramPowerConsumption.At(from, to)
		if !ok {
			return
		}
		power = p
	}
	toRow := row + t
	if toRow >= lg.rows {
		return
	}
	lg.addEdge(lg.node(row, from), lg.node(toRow, to),
		in.TotalEnergyCostOnInterval(row, row+t-1, power))
}

// computeSwitchingCosts runs one shortest path search per begin interval.
// Rows are independent and filled concurrently.
func computeSwitchingCosts(ctx context.Context, in *Instance, workers int) (Table, error) {
	n := len(in.Intervals)
	costs := NewTable(n+1, n+1)
	lg := stateGraph(in)
	check := newSpanCheck(in)

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for begin := 0; begin < n; begin++ {
		begin := begin
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			beginState := in.OnStateIdx
			if begin <= 1 {
				beginState = in.BaseOffStateIdx
			}
			sp := path.DijkstraFrom(simple.Node(lg.node(begin, beginState)), lg.g)
			for end := begin; end <= n; end++ {
				endState := in.OnStateIdx
				if end >= n-1 {
					endState = in.BaseOffStateIdx
				}
				var w float64
				if end == n {
					w = sp.WeightTo(lg.sink())
				} else {
					w = sp.WeightTo(lg.node(end, endState))
				}
				if math.IsInf(w, 1) {
					continue
				}
				// A whole-horizon off span is what an empty machine pays.
				if !(begin <= 1 && end == n) && !check.feasible(begin, end, beginState, endState) {
					continue
				}
				costs.Set(begin, end, int(math.Round(w)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return costs, nil
}

// spanCheck rejects switching spans that leave too little On time around
// them to process every job.
type spanCheck struct {
	in       *Instance
	total    int
	longest  int
	hasJobs  bool
	onState  int
	earliest int
	latest   int
}

func newSpanCheck(in *Instance) spanCheck {
	c := spanCheck{
		in:       in,
		total:    in.TotalProcessingTime(),
		onState:  in.OnStateIdx,
		earliest: in.EarliestOnIntervalIdx,
		latest:   in.LatestOnIntervalIdx,
	}
	for _, j := range in.Jobs {
		c.hasJobs = true
		c.longest = max(c.longest, j.ProcessingTime)
	}
	return c
}

func (c spanCheck) feasible(begin, end, beginState, endState int) bool {
	left := max(0, begin-c.earliest)
	if beginState == c.onState && left == 0 {
		return false
	}
	right := max(0, c.latest+1-end)
	if endState == c.onState && right == 0 {
		return false
	}
	if c.hasJobs && c.longest > left && c.longest > right {
		return false
	}
	return left+right >= c.total
}
