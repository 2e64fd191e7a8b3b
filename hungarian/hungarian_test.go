package hungarian_test

import (
	"math"
	"testing"

	"github.com/pipeintel/ilialign/hungarian"
	"github.com/stretchr/testify/assert"
)

func TestSolve_EmptyMatrix(t *testing.T) {
	_, err := hungarian.Solve(nil)
	assert.ErrorIs(t, err, hungarian.ErrEmptyMatrix)
}

// TestSolve_Tie reproduces the literal scenario 4 from the spec: cost
// matrix [[0,1],[1,0]] assigns {(0,0),(1,1)} with total 0.
func TestSolve_Tie(t *testing.T) {
	cost := [][]float64{{0, 1}, {1, 0}}
	assigns, err := hungarian.Solve(cost)
	assert.NoError(t, err)
	assert.Len(t, assigns, 2)

	total := 0.0
	seenRows, seenCols := map[int]bool{}, map[int]bool{}
	for _, a := range assigns {
		total += a.Cost
		assert.False(t, seenRows[a.Row])
		assert.False(t, seenCols[a.Col])
		seenRows[a.Row] = true
		seenCols[a.Col] = true
	}
	assert.InDelta(t, 0.0, total, 1e-9)
}

func TestSolve_Rectangular(t *testing.T) {
	// 2 rows, 3 cols: padding to 3x3 with sentinel should still assign both
	// real rows to their cheapest real columns.
	cost := [][]float64{
		{1, 9, 9},
		{9, 1, 9},
	}
	assigns, err := hungarian.Solve(cost)
	assert.NoError(t, err)
	for _, a := range assigns {
		assert.Less(t, a.Row, 2)
		assert.Less(t, a.Col, 3)
	}
	total := 0.0
	for _, a := range assigns {
		total += a.Cost
	}
	assert.InDelta(t, 2.0, total, 1e-6)
}

func TestSolve_UniqueRowsAndCols(t *testing.T) {
	cost := [][]float64{
		{4, 1, 3},
		{2, 0, 5},
		{3, 2, 2},
	}
	assigns, err := hungarian.Solve(cost)
	assert.NoError(t, err)
	assert.Len(t, assigns, 3)
	rows, cols := map[int]bool{}, map[int]bool{}
	for _, a := range assigns {
		rows[a.Row] = true
		cols[a.Col] = true
	}
	assert.Len(t, rows, 3)
	assert.Len(t, cols, 3)
}

func TestSolve_NonFiniteTreatedAsSentinel(t *testing.T) {
	cost := [][]float64{
		{math.Inf(1), 1},
		{1, math.NaN()},
	}
	assigns, err := hungarian.Solve(cost)
	assert.NoError(t, err)
	assert.Len(t, assigns, 2)
}
