package sparse

import "math"

// countMarkowitz counts the off-diagonal entries of every row and column.
// An empty row or column counts -1.
func (lu *LU) countMarkowitz() {
	for i := 0; i < lu.size; i++ {
		count := -1
		for e := lu.firstInRow[i]; e != nil; e = e.nextInRow {
			count++
		}
		lu.markowitzRow[i] = count

		count = -1
		for e := lu.firstInCol[i]; e != nil; e = e.nextInCol {
			count++
		}
		lu.markowitzCol[i] = count
	}
}

// markowitzProduct bounds the fill-in pivoting on e can cause.
func (lu *LU) markowitzProduct(e *entry) int {
	return markowitzProduct(lu.markowitzRow[e.row], lu.markowitzCol[e.col])
}

func markowitzProduct(op1, op2 int) int {
	const largest = math.MaxInt32

	if op1 <= 0 || op2 <= 0 {
		return max(op1*op2, 0)
	}
	if op1 > largest/op2 {
		return largest
	}
	return op1 * op2
}

// updateMarkowitzNumbers removes the pivot row and column from the counts of
// the rows and columns that are still active.
func (lu *LU) updateMarkowitzNumbers(pivot *entry) {
	for lower := lu.firstInCol[pivot.col]; lower != nil; lower = lower.nextInCol {
		if lu.rowStep[lower.row] < 0 {
			lu.markowitzRow[lower.row]--
		}
	}
	for upper := lu.firstInRow[pivot.row]; upper != nil; upper = upper.nextInRow {
		if lu.colStep[upper.col] < 0 {
			lu.markowitzCol[upper.col]--
		}
	}
}
