package hungarian

import "math"

// Solve computes a minimum-cost assignment over the rows x cols cost
// matrix. Non-square inputs are padded with SentinelCost up to
// max(rows,cols); non-finite entries are also treated as SentinelCost.
// Only assignments whose row and col index both fall within the original
// rectangle are returned.
//
// Complexity: O(k^3) where k = max(rows, cols).
func Solve(cost [][]float64) ([]Assignment, error) {
	rows := len(cost)
	if rows == 0 {
		return nil, ErrEmptyMatrix
	}
	cols := len(cost[0])
	for _, r := range cost {
		if len(r) != cols {
			cols = maxInt(cols, len(r))
		}
	}
	if cols == 0 {
		return nil, ErrEmptyMatrix
	}

	n := maxInt(rows, cols)
	a := make([][]float64, n+1) // 1-indexed, as the classic formulation expects
	for i := 1; i <= n; i++ {
		a[i] = make([]float64, n+1)
		for j := 1; j <= n; j++ {
			if i <= rows && j <= cols && j-1 < len(cost[i-1]) {
				v := cost[i-1][j-1]
				if math.IsInf(v, 0) || math.IsNaN(v) {
					v = SentinelCost
				}
				a[i][j] = v
			} else {
				a[i][j] = SentinelCost
			}
		}
	}

	const inf = math.MaxFloat64 / 2
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1) // p[j] = row matched to column j
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minV := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := 0; j <= n; j++ {
			minV[j] = inf
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := a[i0][j] - u[i0] - v[j]
				if cur < minV[j] {
					minV[j] = cur
					way[j] = j0
				}
				if minV[j] < delta {
					delta = minV[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minV[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	assignments := make([]Assignment, 0, minInt(rows, cols))
	for j := 1; j <= n; j++ {
		i := p[j]
		row, col := i-1, j-1
		if row < rows && col < cols {
			assignments = append(assignments, Assignment{Row: row, Col: col, Cost: cost[row][col]})
		}
	}
	return assignments, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
