package sparse

import (
	"fmt"
)

// rowColElimination takes pivot as the step-th pivot and updates the active
// submatrix with the rank one correction of its row and column.
func (lu *LU) rowColElimination(pivot *entry, step int) error {
	if pivot.value == 0 {
		return fmt.Errorf("%w: zero pivot at row %d col %d", ErrSingular, pivot.row, pivot.col)
	}

	lu.pivots[step] = pivot
	lu.rowStep[pivot.row] = step
	lu.colStep[pivot.col] = step

	pivot.value = 1 / pivot.value

	for upper := lu.firstInRow[pivot.row]; upper != nil; upper = upper.nextInRow {
		if lu.colStep[upper.col] >= 0 {
			continue
		}
		upper.value *= pivot.value

		for lower := lu.firstInCol[pivot.col]; lower != nil; lower = lower.nextInCol {
			if lu.rowStep[lower.row] >= 0 {
				continue
			}
			sub := lu.findOrCreateElement(lower.row, upper.col)
			sub.value -= upper.value * lower.value
		}
	}

	return nil
}

// findOrCreateElement returns the entry at (row, col), linking a fill-in into
// both lists when there is none.
func (lu *LU) findOrCreateElement(row, col int) *entry {
	current := lu.firstInRow[row]
	var prev *entry
	for current != nil && current.col < col {
		prev = current
		current = current.nextInRow
	}
	if current != nil && current.col == col {
		return current
	}

	elem := &entry{row: row, col: col}
	if prev == nil {
		lu.firstInRow[row] = elem
	} else {
		prev.nextInRow = elem
	}
	elem.nextInRow = current

	current = lu.firstInCol[col]
	prev = nil
	for current != nil && current.row < row {
		prev = current
		current = current.nextInCol
	}
	if prev == nil {
		lu.firstInCol[col] = elem
	} else {
		prev.nextInCol = elem
	}
	elem.nextInCol = current

	lu.markowitzRow[row]++
	lu.markowitzCol[col]++
	lu.fillins++

	return elem
}
