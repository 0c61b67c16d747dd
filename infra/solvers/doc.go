// Package solvers bundles the strategies registered with core/solver:
//
//   - fixed-order: optimal timing of a fixed job order per machine
//   - local-search: swap and insertion search over job orders
//   - lp-bound: time-indexed LP relaxation giving a lower bound
//
// Importing the package registers them.
package solvers
