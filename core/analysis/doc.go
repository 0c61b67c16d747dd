// Package analysis compares the archived results of several solvers on a
// dataset: it checks that proven optima agree, flags heuristics that beat a
// proven optimum and tabulates running times per instance.
package analysis
