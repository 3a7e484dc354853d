package sparse

import (
	"fmt"
)

// Factor orders and factors the square matrix a. Pivots are chosen to keep
// fill-in low (Markowitz criterion) while staying within the relative
// threshold of the largest entry in their column.
func Factor(a *Matrix, opts *FactorOptions) (*LU, error) {
	if a.rows != a.cols {
		return nil, fmt.Errorf("%w: cannot factor %d x %d", ErrShape, a.rows, a.cols)
	}

	o := FactorOptions{DiagPivoting: true}
	if opts != nil {
		o = *opts
	}
	if o.RelThreshold <= 0 || o.RelThreshold > 1 {
		o.RelThreshold = DefaultRelThreshold
	}
	if o.AbsThreshold < 0 {
		o.AbsThreshold = 0
	}
	if o.TiesMultiplier <= 0 {
		o.TiesMultiplier = DefaultTiesMultiplier
	}

	size := a.rows
	lu := &LU{
		size:         size,
		opts:         o,
		firstInRow:   make([]*entry, size),
		firstInCol:   make([]*entry, size),
		markowitzRow: make([]int, size),
		markowitzCol: make([]int, size),
		pivots:       make([]*entry, size),
		rowStep:      make([]int, size),
		colStep:      make([]int, size),
	}
	for i := range size {
		lu.rowStep[i] = -1
		lu.colStep[i] = -1
	}

	// CSR order keeps both lists sorted while appending at their tails.
	lastInCol := make([]*entry, size)
	for i := 0; i < size; i++ {
		var last *entry
		for k := a.rowPtr[i]; k < a.rowPtr[i+1]; k++ {
			e := &entry{row: i, col: a.colInd[k], value: a.values[k]}
			if last == nil {
				lu.firstInRow[i] = e
			} else {
				last.nextInRow = e
			}
			last = e

			if lastInCol[e.col] == nil {
				lu.firstInCol[e.col] = e
			} else {
				lastInCol[e.col].nextInCol = e
			}
			lastInCol[e.col] = e
			lu.elements++
		}
	}

	lu.countMarkowitz()

	for step := 0; step < size; step++ {
		pivot := lu.searchForPivot()
		if pivot == nil {
			return nil, fmt.Errorf("%w: no acceptable pivot at step %d", ErrSingular, step)
		}
		if err := lu.rowColElimination(pivot, step); err != nil {
			return nil, err
		}
		lu.updateMarkowitzNumbers(pivot)
	}

	return lu, nil
}

func (lu *LU) Size() int {
	return lu.size
}

// ElementCount is the number of stored entries, fill-ins included.
func (lu *LU) ElementCount() int {
	return lu.elements + lu.fillins
}

func (lu *LU) FillinCount() int {
	return lu.fillins
}

// Determinant is the product of the pivots with the sign of the row and
// column permutations.
func (lu *LU) Determinant() float64 {
	det := 1.0
	for _, p := range lu.pivots {
		det /= p.value
	}

	rows := make([]int, lu.size)
	cols := make([]int, lu.size)
	for step, p := range lu.pivots {
		rows[step] = p.row
		cols[step] = p.col
	}
	if permutationParity(rows) != permutationParity(cols) {
		det = -det
	}
	return det
}

// permutationParity reports whether p has an odd number of inversions.
func permutationParity(p []int) bool {
	seen := make([]bool, len(p))
	odd := false
	for i := range p {
		if seen[i] {
			continue
		}
		length := 0
		for j := i; !seen[j]; j = p[j] {
			seen[j] = true
			length++
		}
		if length%2 == 0 {
			odd = !odd
		}
	}
	return odd
}
