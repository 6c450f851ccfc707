package align

import "math"

// Pair is one row/column assignment with its cell cost.
type Pair struct {
	Row  int
	Col  int
	Cost float64
}

// Solve returns the minimum-cost assignment of a rows x cols matrix. The
// matrix is padded to square; rows or columns assigned to padding are left
// out, so min(rows, cols) pairs come back, ordered by row.
func Solve(cost [][]float64) []Pair {
	rows := len(cost)
	if rows == 0 {
		return nil
	}
	cols := len(cost[0])
	if cols == 0 {
		return nil
	}
	size := max(rows, cols)

	square := make([][]float64, size)
	for i := range size {
		square[i] = make([]float64, size)
		if i < rows {
			copy(square[i], cost[i][:cols])
		}
	}

	assign := hungarian(square)
	pairs := make([]Pair, 0, min(rows, cols))
	for i, j := range assign {
		if i >= rows || j < 0 || j >= cols {
			continue
		}
		pairs = append(pairs, Pair{Row: i, Col: j, Cost: cost[i][j]})
	}
	return pairs
}

// hungarian solves the assignment problem for a square cost matrix (minimization).
// assignment[i] is the column chosen for row i, or -1.
func hungarian(cost [][]float64) []int {
	n := len(cost)
	if n == 0 || len(cost[0]) != n {
		return nil
	}

	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				if cur := cost[i0-1][j-1] - u[i0] - v[j]; cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
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

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	for j := 1; j <= n; j++ {
		if p[j] > 0 {
			assign[p[j]-1] = j - 1
		}
	}
	return assign
}
