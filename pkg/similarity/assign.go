package similarity

import "math"

// costEpsilon absorbs float drift in the assignment potentials.
const costEpsilon = 1e-9

// weight orders assignments by cost first and by the number of differences
// second, so a zero-priced mismatch never beats an exact match.
type weight struct {
	cost  float64
	diffs int
}

var infWeight = weight{cost: math.Inf(1)}

func (w weight) add(o weight) weight { return weight{w.cost + o.cost, w.diffs + o.diffs} }
func (w weight) sub(o weight) weight { return weight{w.cost - o.cost, w.diffs - o.diffs} }

func (w weight) less(o weight) bool {
	if d := w.cost - o.cost; math.Abs(d) > costEpsilon {
		return d < 0
	}
	return w.diffs < o.diffs
}

// minAssign solves the assignment problem on the square matrix w and returns
// the column assigned to every row. It is the O(n³) Hungarian method with
// row and column potentials; rows are inserted in index order and ties go
// to the lower column, so equal inputs give equal assignments.
func minAssign(w [][]weight) []int {
	n := len(w)
	if n == 0 {
		return nil
	}
	// Index 0 is a sentinel column; rows and columns are 1-based below.
	u := make([]weight, n+1)
	v := make([]weight, n+1)
	owner := make([]int, n+1) // owner[j] is the row holding column j
	way := make([]int, n+1)
	minv := make([]weight, n+1)
	used := make([]bool, n+1)

	for i := 1; i <= n; i++ {
		owner[0] = i
		j0 := 0
		for j := range minv {
			minv[j] = infWeight
			used[j] = false
		}
		for {
			used[j0] = true
			i0 := owner[j0]
			delta, j1 := infWeight, 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := w[i0-1][j-1].sub(u[i0]).sub(v[j])
				if cur.less(minv[j]) {
					minv[j], way[j] = cur, j0
				}
				if j1 == 0 || minv[j].less(delta) {
					delta, j1 = minv[j], j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[owner[j]] = u[owner[j]].add(delta)
					v[j] = v[j].sub(delta)
				} else {
					minv[j] = minv[j].sub(delta)
				}
			}
			j0 = j1
			if owner[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			owner[j0] = owner[j1]
			j0 = j1
		}
	}

	cols := make([]int, n)
	for j := 1; j <= n; j++ {
		cols[owner[j]-1] = j - 1
	}
	return cols
}

// squareWeights returns an n×n matrix of zero weights.
func squareWeights(n int) [][]weight {
	w := make([][]weight, n)
	for i := range w {
		w[i] = make([]weight, n)
	}
	return w
}
