package instance

import (
	"errors"
	"fmt"
)

// ErrInvalidInstance wraps every structural problem reported by Validate.
var ErrInvalidInstance = errors.New("invalid instance")

// Validate checks the instance before it is handed to a solver.
func (in *Instance) Validate() error {
	if in.MachinesCount <= 0 {
		return fmt.Errorf("%w: machines count must be > 0 (got %d)", ErrInvalidInstance, in.MachinesCount)
	}
	if in.LengthInterval <= 0 {
		return fmt.Errorf("%w: length interval must be > 0 (got %d)", ErrInvalidInstance, in.LengthInterval)
	}
	for pos, j := range in.Jobs {
		if j.Index != pos {
			return fmt.Errorf("%w: job %d has index %d at position %d", ErrInvalidInstance, j.ID, j.Index, pos)
		}
		if j.MachineIdx < 0 || j.MachineIdx >= in.MachinesCount {
			return fmt.Errorf("%w: job %d has machine index %d", ErrInvalidInstance, j.ID, j.MachineIdx)
		}
		if j.ProcessingTime <= 0 {
			return fmt.Errorf("%w: job %d has non-positive processing time %d", ErrInvalidInstance, j.ID, j.ProcessingTime)
		}
	}
	for pos, iv := range in.Intervals {
		if iv.Index != pos {
			return fmt.Errorf("%w: interval at position %d has index %d", ErrInvalidInstance, pos, iv.Index)
		}
		if iv.EnergyCost < 0 {
			return fmt.Errorf("%w: interval %d has negative energy cost", ErrInvalidInstance, iv.Index)
		}
		if iv.Length() != 1 {
			return fmt.Errorf("%w: interval %d has non-unit length %d", ErrInvalidInstance, iv.Index, iv.Length())
		}
	}
	if err := in.checkOffStateTables(); err != nil {
		return err
	}
	if in.Extended() {
		if in.EarliestOnIntervalIdx < 0 || in.LatestOnIntervalIdx >= len(in.Intervals) {
			return fmt.Errorf("%w: on window [%d,%d] outside horizon", ErrInvalidInstance,
				in.EarliestOnIntervalIdx, in.LatestOnIntervalIdx)
		}
		if len(in.OptimalSwitchingCosts) < len(in.Intervals) {
			return fmt.Errorf("%w: switching cost table has %d rows for %d intervals", ErrInvalidInstance,
				len(in.OptimalSwitchingCosts), len(in.Intervals))
		}
	}
	return nil
}

// checkOffStateTables verifies that every per off state table has one entry
// per off state.
func (in *Instance) checkOffStateTables() error {
	if len(in.OffPowerConsumption) == 0 {
		return fmt.Errorf("%w: at least one off state is required", ErrInvalidInstance)
	}
	n := len(in.OffPowerConsumption)
	for name, l := range map[string]int{
		"OffOnTime":               len(in.OffOnTime),
		"OnOffTime":               len(in.OnOffTime),
		"OffOnPowerConsumption":   len(in.OffOnPowerConsumption),
		"OnOffPowerConsumption":   len(in.OnOffPowerConsumption),
		"OffIdleTime":             len(in.OffIdleTime),
		"IdleOffTime":             len(in.IdleOffTime),
		"OffIdlePowerConsumption": len(in.OffIdlePowerConsumption),
		"IdleOffPowerConsumption": len(in.IdleOffPowerConsumption),
	} {
		if l != n {
			return fmt.Errorf("%w: %s has %d entries, expected %d", ErrInvalidInstance, name, l, n)
		}
	}
	for off := 0; off < n; off++ {
		if in.OffOnTime[off] < 0 || in.OnOffTime[off] < 0 {
			return fmt.Errorf("%w: off state %d has a negative transition time", ErrInvalidInstance, off)
		}
	}
	return nil
}
