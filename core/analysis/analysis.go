package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/kilianp07/tecsched/core/archive"
	"github.com/kilianp07/tecsched/core/instance"
	"github.com/kilianp07/tecsched/core/result"
)

var (
	// ErrConflictingOptima is returned when two solvers prove different
	// optimal objectives for the same instance.
	ErrConflictingOptima = errors.New("conflicting optimal objectives")
	// ErrHeuristicBelowOptimum is returned when a heuristic objective is
	// lower than a proven optimum.
	ErrHeuristicBelowOptimum = errors.New("heuristic objective below optimum")
)

// Cell is the outcome of one solver on one instance.
type Cell struct {
	Status      result.Status
	Objective   *int
	RunningTime time.Duration
}

// Row holds every solver outcome for an instance. A nil cell means the
// solver has no result for it.
type Row struct {
	Instance string
	Metadata map[string]any
	Cells    map[string]*Cell
}

// Optimum is a proven optimal objective and the solver that found it.
type Optimum struct {
	Solver    string
	Objective int
}

// Report is the per-instance view of a prescription on a dataset.
type Report struct {
	Prescription string
	Dataset      string
	Solvers      []string
	Rows         []Row
}

// Build loads every result of the prescription on the dataset and checks
// their consistency.
func Build(ctx context.Context, store *archive.FileStore, prescription, dataset string) (*Report, error) {
	files, err := store.Layout().DatasetInstances(dataset)
	if err != nil {
		return nil, fmt.Errorf("list dataset %s: %w", dataset, err)
	}
	solvers, err := store.Solvers(prescription, dataset)
	if err != nil {
		return nil, fmt.Errorf("list solvers: %w", err)
	}
	sort.Strings(solvers)

	rep := &Report{Prescription: prescription, Dataset: dataset, Solvers: solvers}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		inst, err := instance.Load(path)
		if err != nil {
			return nil, err
		}
		row := Row{Instance: filepath.Base(path), Metadata: inst.Metadata, Cells: map[string]*Cell{}}
		for _, s := range solvers {
			k := archive.Key{Prescription: prescription, Dataset: dataset, SolverID: s, Instance: row.Instance}
			res, err := store.Load(ctx, k, inst)
			if errors.Is(err, archive.ErrNotFound) {
				row.Cells[s] = nil
				continue
			}
			if err != nil {
				return nil, err
			}
			row.Cells[s] = &Cell{Status: res.Status, Objective: res.Objective, RunningTime: res.RunningTime}
		}
		rep.Rows = append(rep.Rows, row)
	}
	if err := rep.Check(); err != nil {
		return nil, err
	}
	return rep, nil
}

// Optima returns the proven optimum of every instance that has one.
func (r *Report) Optima() (map[string]Optimum, error) {
	out := map[string]Optimum{}
	for _, row := range r.Rows {
		for _, s := range r.Solvers {
			c := row.Cells[s]
			if c == nil || c.Status != result.Optimal || c.Objective == nil {
				continue
			}
			prev, ok := out[row.Instance]
			if ok && prev.Objective != *c.Objective {
				return nil, fmt.Errorf("%w: instance %s: %s=%d, %s=%d", ErrConflictingOptima,
					row.Instance, s, *c.Objective, prev.Solver, prev.Objective)
			}
			out[row.Instance] = Optimum{Solver: s, Objective: *c.Objective}
		}
	}
	return out, nil
}

// Check verifies that proven optima agree and that no heuristic beats them.
func (r *Report) Check() error {
	optima, err := r.Optima()
	if err != nil {
		return err
	}
	for _, row := range r.Rows {
		opt, ok := optima[row.Instance]
		if !ok {
			continue
		}
		for _, s := range r.Solvers {
			c := row.Cells[s]
			if c == nil || c.Status != result.Heuristic || c.Objective == nil {
				continue
			}
			if *c.Objective < opt.Objective {
				return fmt.Errorf("%w: instance %s: %s=%d, %s=%d", ErrHeuristicBelowOptimum,
					row.Instance, s, *c.Objective, opt.Solver, opt.Objective)
			}
		}
	}
	return nil
}
