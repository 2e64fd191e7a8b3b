// Package hungarian solves minimum-cost bipartite assignment on a
// rectangular cost matrix, padding to a square matrix with a large
// sentinel cost so the standard O(n^3) primal-dual algorithm applies
// uniformly. Tie-breaking below follows the corpus's deterministic
// "smaller id wins" discipline (tsp/matching.go's greedy odd-vertex
// matching uses the same rule).
package hungarian

import "errors"

// ErrEmptyMatrix indicates a 0x0 or fully empty cost matrix was supplied.
var ErrEmptyMatrix = errors.New("hungarian: empty cost matrix")

// SentinelCost pads a rectangular matrix up to square and stands in for
// any non-finite entry. Finite input costs are used as given; Solve does
// not clamp them below this value.
const SentinelCost = 1e6

// Assignment is one accepted (row, col) pair from the original rectangle,
// with its original cost.
type Assignment struct {
	Row  int
	Col  int
	Cost float64
}
