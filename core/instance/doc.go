// Package instance holds the problem description of an energy-cost-aware
// scheduling instance: machines, jobs, priced intervals, the machine state
// diagram and the precomputed cost tables consumed by solvers.
//
// An Instance is decoded once and treated as read-only afterwards. Nullable
// table entries mean the corresponding transition is not supported; they are
// never interpreted as zero cost.
package instance
