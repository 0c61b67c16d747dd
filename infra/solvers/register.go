package solvers

import "github.com/kilianp07/tecsched/core/solver"

// Registered strategy names.
const (
	FixedOrderName  = "fixed-order"
	LocalSearchName = "local-search"
	LPBoundName     = "lp-bound"
)

func init() {
	solver.MustRegister(FixedOrderName, NewFixedOrder)
	solver.MustRegister(LocalSearchName, NewLocalSearch)
	solver.MustRegister(LPBoundName, NewLPBound)
}
