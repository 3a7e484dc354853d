package sparse

import (
	"fmt"
	"slices"
)

// Solve returns x with A x = rhs for the factored A.
func (lu *LU) Solve(rhs []float64) ([]float64, error) {
	if len(rhs) != lu.size {
		return nil, fmt.Errorf("%w: rhs of %d for size %d", ErrShape, len(rhs), lu.size)
	}

	intermediate := slices.Clone(rhs)

	// Forward elimination - Solves Lc = b
	for step, pivot := range lu.pivots {
		temp := intermediate[pivot.row]
		if temp == 0 {
			continue
		}
		temp *= pivot.value
		intermediate[pivot.row] = temp

		for lower := lu.firstInCol[pivot.col]; lower != nil; lower = lower.nextInCol {
			if lu.rowStep[lower.row] > step {
				intermediate[lower.row] -= temp * lower.value
			}
		}
	}

	// Backward Substitution - Solves Ux = c
	solution := make([]float64, lu.size)
	for step := lu.size - 1; step >= 0; step-- {
		pivot := lu.pivots[step]
		temp := intermediate[pivot.row]
		for upper := lu.firstInRow[pivot.row]; upper != nil; upper = upper.nextInRow {
			if lu.colStep[upper.col] > step {
				temp -= upper.value * solution[upper.col]
			}
		}
		solution[pivot.col] = temp
	}

	return solution, nil
}
