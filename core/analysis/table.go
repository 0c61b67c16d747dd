package analysis

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/tecsched/core/result"
)

// WriteCSV writes the running time table: one row per instance and one
// Time/<solver> column per solver, in seconds. Missing results are empty.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{"Instance"}
	for _, s := range r.Solvers {
		header = append(header, "Time/"+s)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range r.Rows {
		rec := []string{row.Instance}
		for _, s := range r.Solvers {
			if c := row.Cells[s]; c != nil {
				rec = append(rec, strconv.FormatFloat(c.RunningTime.Seconds(), 'f', -1, 64))
			} else {
				rec = append(rec, "")
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SolverSummary aggregates the results of one solver.
type SolverSummary struct {
	Solver    string
	Results   int
	Optimal   int
	Heuristic int
	// MeanTime and StdTime are in seconds.
	MeanTime float64
	StdTime  float64
}

// Summaries returns one summary per solver, in solver order.
func (r *Report) Summaries() []SolverSummary {
	out := make([]SolverSummary, 0, len(r.Solvers))
	for _, s := range r.Solvers {
		sum := SolverSummary{Solver: s}
		var times []float64
		for _, row := range r.Rows {
			c := row.Cells[s]
			if c == nil {
				continue
			}
			sum.Results++
			switch c.Status {
			case result.Optimal:
				sum.Optimal++
			case result.Heuristic:
				sum.Heuristic++
			}
			times = append(times, c.RunningTime.Seconds())
		}
		if len(times) > 0 {
			sum.MeanTime = stat.Mean(times, nil)
		}
		if len(times) > 1 {
			sum.StdTime = stat.StdDev(times, nil)
		}
		out = append(out, sum)
	}
	return out
}

// Group is a set of rows sharing the same values for the grouping
// metadata parameters.
type Group struct {
	Params map[string]any
	Rows   []Row
}

// GroupByMetadata partitions rows by the values of the given metadata
// keys. Keys absent from a row's metadata are left out of its params.
// Groups are ordered by their params.
func GroupByMetadata(rows []Row, params []string) []Group {
	index := map[string]int{}
	var groups []Group
	for _, row := range rows {
		p := map[string]any{}
		for _, name := range params {
			if v, ok := row.Metadata[name]; ok {
				p[name] = v
			}
		}
		key := groupKey(p, params)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Params: p})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groupKey(groups[a].Params, params) < groupKey(groups[b].Params, params)
	})
	return groups
}

func groupKey(p map[string]any, params []string) string {
	key := ""
	for _, name := range params {
		if v, ok := p[name]; ok {
			key += fmt.Sprintf("%s=%v;", name, v)
		} else {
			key += name + "=;"
		}
	}
	return key
}
