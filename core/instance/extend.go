package instance

import (
	"context"
	"fmt"

	"github.com/kilianp07/tecsched/core/model"
)

// ExtendOptions controls the derivation of the precomputed tables.
type ExtendOptions struct {
	// Workers bounds the number of goroutines computing table rows.
	// Zero or less uses one per CPU.
	Workers int
}

// Extended reports whether every derived table is present.
func (in *Instance) Extended() bool {
	return len(in.States) > 0 &&
		in.CumulativeEnergyCost != nil &&
		in.OptimalSwitchingCosts != nil &&
		in.GapsLowerBounds != nil
}

// Extend computes the tables missing from a base instance: the state
// diagram, the On window, cumulative energy costs, optimal switching costs
// and gap lower bounds. Tables already present are kept as they are.
func (in *Instance) Extend(ctx context.Context, opts ExtendOptions) error {
	if len(in.Intervals) < 2 {
		return fmt.Errorf("%w: at least two intervals are required", ErrInvalidInstance)
	}
	if len(in.States) == 0 {
		if err := in.checkOffStateTables(); err != nil {
			return err
		}
		in.initStateDiagram()
		in.initOnWindow()
	}
	if in.CumulativeEnergyCost == nil {
		in.CumulativeEnergyCost = cumulativeEnergyCost(in.Intervals)
	}
	if in.OptimalSwitchingCosts == nil {
		costs, err := computeSwitchingCosts(ctx, in, opts.Workers)
		if err != nil {
			return fmt.Errorf("switching costs: %w", err)
		}
		in.OptimalSwitchingCosts = costs
	}
	if in.GapsLowerBounds == nil {
		bounds, err := computeGapsLowerBounds(ctx, in, opts.Workers)
		if err != nil {
			return fmt.Errorf("gap lower bounds: %w", err)
		}
		in.GapsLowerBounds = bounds
	}
	return nil
}

// initStateDiagram lays out the states as off 0 (base off), off 1, ...,
// off n-1, on, idle and fills the transition matrices.
func (in *Instance) initStateDiagram() {
	n := len(in.OffPowerConsumption)
	in.OffStateInds = make([]int, n)
	for i := range in.OffStateInds {
		in.OffStateInds[i] = i
	}
	in.BaseOffStateIdx = 0
	in.OnStateIdx = n
	in.IdleStateIdx = n + 1

	total := n + 2
	in.States = make([]model.StateKind, total)
	for i := 0; i < n; i++ {
		in.States[i] = model.StateOff
	}
	in.States[in.OnStateIdx] = model.StateOn
	in.States[in.IdleStateIdx] = model.StateIdle

	power := NewTable(total, total)
	tm := NewTable(total, total)
	on, idle := in.OnStateIdx, in.IdleStateIdx
	for _, off := range in.OffStateInds {
		power.Set(off, on, in.OffOnPowerConsumption[off])
		power.Set(on, off, in.OnOffPowerConsumption[off])
		tm.Set(off, on, in.OffOnTime[off])
		tm.Set(on, off, in.OnOffTime[off])

		power[off][idle] = in.OffIdlePowerConsumption[off]
		power[idle][off] = in.IdleOffPowerConsumption[off]
		tm[off][idle] = in.OffIdleTime[off]
		tm[idle][off] = in.IdleOffTime[off]
	}
	power.Set(idle, on, 0)
	power.Set(on, idle, 0)
	tm.Set(idle, on, 0)
	tm.Set(on, idle, 0)
	for s := 0; s < total; s++ {
		power.Set(s, s, 0)
		tm.Set(s, s, 0)
	}
	in.StateDiagramPowerConsumption = power
	in.StateDiagramTime = tm

	in.StatePowerConsumption = append(append([]int{}, in.OffPowerConsumption...),
		in.OnPowerConsumption, in.IdlePowerConsumption)
	in.StateInds = make([]int, total)
	for i := range in.StateInds {
		in.StateInds[i] = i
	}
}

// initOnWindow derives the On window from the base off transitions: the
// machine starts and ends the horizon in base off.
func (in *Instance) initOnWindow() {
	base := in.BaseOffStateIdx
	in.EarliestOnIntervalIdx = 1 + in.OffOnTime[base]
	in.LatestOnIntervalIdx = len(in.Intervals) - (in.OnOffTime[base] + 1) - 1
}

// cumulativeEnergyCost returns the prefix sums of interval prices: entry
// [i][j] is the sum of energy costs over [i, j] for i <= j.
func cumulativeEnergyCost(intervals []model.Interval) [][]int {
	n := len(intervals)
	out := make([][]int, n)
	for from := 0; from < n; from++ {
		out[from] = make([]int, n)
		sum := 0
		for to := from; to < n; to++ {
			sum += intervals[to].EnergyCost
			out[from][to] = sum
		}
	}
	return out
}

// Strip drops every derived table so that the next Extend recomputes them.
func (in *Instance) Strip() {
	in.States = nil
	in.StateInds = nil
	in.OffStateInds = nil
	in.StatePowerConsumption = nil
	in.StateDiagramPowerConsumption = nil
	in.StateDiagramTime = nil
	in.CumulativeEnergyCost = nil
	in.OptimalSwitchingCosts = nil
	in.GapsLowerBounds = nil
}
