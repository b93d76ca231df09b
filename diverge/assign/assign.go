// Package assign solves the rectangular linear assignment problem: given an
// r x c cost matrix, pick min(r, c) cells, at most one per row and column,
// with minimum total cost.
package assign

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Unassigned marks a row without a column in the result of Minimize.
const Unassigned = -1

// Minimize returns, for every row of cost, the column assigned to it, or
// Unassigned when the matrix has more rows than columns and the row was left
// out. Costs must be finite. The result is globally optimal and depends only
// on the matrix values, so equal inputs always produce equal assignments.
//
// It uses the shortest-augmenting-path form of the Hungarian method with row
// and column potentials, O(r*r*c) for r <= c. Taller matrices are transposed.
func Minimize(cost mat.Matrix) []int {
	r, c := cost.Dims()
	if r == 0 || c == 0 {
		out := make([]int, r)
		for i := range out {
			out[i] = Unassigned
		}
		return out
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := cost.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				panic(fmt.Sprintf("assign: non-finite cost %v at (%d, %d)", v, i, j))
			}
		}
	}
	if r <= c {
		return hungarian(cost, r, c)
	}

	colToRow := hungarian(cost.T(), c, r)
	out := make([]int, r)
	for i := range out {
		out[i] = Unassigned
	}
	for col, row := range colToRow {
		out[row] = col
	}
	return out
}

// Maximize is Minimize over the negated matrix.
func Maximize(score mat.Matrix) []int {
	if r, c := score.Dims(); r == 0 || c == 0 {
		return Minimize(score)
	}
	var neg mat.Dense
	neg.Scale(-1, score)
	return Minimize(&neg)
}

// Total sums the matrix cells selected by rowToCol.
func Total(m mat.Matrix, rowToCol []int) float64 {
	vals := make([]float64, 0, len(rowToCol))
	for row, col := range rowToCol {
		if col != Unassigned {
			vals = append(vals, m.At(row, col))
		}
	}
	return floats.Sum(vals)
}

// hungarian requires n <= m. Indices are 1-based internally; slot 0 is the
// virtual root of each augmenting search.
func hungarian(a mat.Matrix, n, m int) []int {
	u := make([]float64, n+1)
	v := make([]float64, m+1)
	p := make([]int, m+1) // p[j]: row matched to column j, 0 if free
	way := make([]int, m+1)
	minv := make([]float64, m+1)
	used := make([]bool, m+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		for j := range minv {
			minv[j] = math.Inf(1)
			used[j] = false
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= m; j++ {
				if used[j] {
					continue
				}
				cur := a.At(i0-1, j-1) - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= m; j++ {
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

	rowToCol := make([]int, n)
	for j := 1; j <= m; j++ {
		if p[j] != 0 {
			rowToCol[p[j]-1] = j - 1
		}
	}
	return rowToCol
}
