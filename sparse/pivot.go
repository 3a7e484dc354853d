package sparse

import (
	"math"
)

// searchForPivot tries singletons first since they cause no fill-in, then
// the diagonal when diagonal pivoting is on, then the whole active submatrix.
func (lu *LU) searchForPivot() *entry {
	if pivot := lu.searchForSingleton(); pivot != nil {
		return pivot
	}

	if lu.opts.DiagPivoting {
		if pivot := lu.searchDiagonal(); pivot != nil {
			return pivot
		}
	}

	return lu.searchEntireMatrix()
}

func (lu *LU) activeRow(e *entry) bool {
	return lu.rowStep[e.row] < 0
}

func (lu *LU) activeCol(e *entry) bool {
	return lu.colStep[e.col] < 0
}

// acceptable applies the absolute and relative pivot thresholds.
func (lu *LU) acceptable(e *entry) bool {
	magnitude := math.Abs(e.value)
	return magnitude > lu.opts.AbsThreshold &&
		magnitude > lu.opts.RelThreshold*lu.findBiggestInColExclude(e)
}

// findBiggestInColExclude is the largest active magnitude in the column of
// elem, elem itself excluded.
func (lu *LU) findBiggestInColExclude(elem *entry) float64 {
	largest := 0.0
	for current := lu.firstInCol[elem.col]; current != nil; current = current.nextInCol {
		if current == elem || !lu.activeRow(current) {
			continue
		}
		largest = math.Max(largest, math.Abs(current.value))
	}
	return largest
}

func (lu *LU) findBiggestInCol(col int) float64 {
	largest := 0.0
	for current := lu.firstInCol[col]; current != nil; current = current.nextInCol {
		if lu.activeRow(current) {
			largest = math.Max(largest, math.Abs(current.value))
		}
	}
	return largest
}

// searchForSingleton looks for an acceptable entry alone in its active row
// or column.
func (lu *LU) searchForSingleton() *entry {
	for i := 0; i < lu.size; i++ {
		if lu.rowStep[i] < 0 && lu.markowitzRow[i] == 0 {
			for e := lu.firstInRow[i]; e != nil; e = e.nextInRow {
				if lu.activeCol(e) {
					if lu.acceptable(e) {
						return e
					}
					break
				}
			}
		}

		if lu.colStep[i] < 0 && lu.markowitzCol[i] == 0 {
			for e := lu.firstInCol[i]; e != nil; e = e.nextInCol {
				if lu.activeRow(e) {
					if lu.acceptable(e) {
						return e
					}
					break
				}
			}
		}
	}
	return nil
}

// searchDiagonal picks the acceptable diagonal entry with the smallest
// Markowitz product. Ties go to the entry that is largest relative to its
// column.
func (lu *LU) searchDiagonal() *entry {
	var chosenPivot *entry
	minMarkowitzProduct := math.MaxInt
	numberOfTies := 0
	var ratioOfAccepted float64

	for i := lu.size - 1; i >= 0; i-- {
		if lu.rowStep[i] >= 0 || lu.colStep[i] >= 0 {
			continue
		}

		diag := lu.findDiag(i)
		if diag == nil {
			continue
		}
		product := lu.markowitzProduct(diag)
		if product > minMarkowitzProduct {
			continue
		}

		magnitude := math.Abs(diag.value)
		if magnitude <= lu.opts.AbsThreshold {
			continue
		}
		largestInCol := lu.findBiggestInColExclude(diag)
		if magnitude <= lu.opts.RelThreshold*largestInCol {
			continue
		}

		if product < minMarkowitzProduct {
			chosenPivot = diag
			minMarkowitzProduct = product
			ratioOfAccepted = largestInCol / magnitude
			numberOfTies = 0
			continue
		}

		numberOfTies++
		if ratio := largestInCol / magnitude; ratio < ratioOfAccepted {
			chosenPivot = diag
			ratioOfAccepted = ratio
		}
		if numberOfTies >= minMarkowitzProduct*lu.opts.TiesMultiplier {
			return chosenPivot
		}
	}

	return chosenPivot
}

// searchEntireMatrix considers every active entry. When none passes the
// thresholds the largest one is returned; nil means the active submatrix is
// all zeros.
func (lu *LU) searchEntireMatrix() *entry {
	var chosenPivot, largestElement *entry
	minMarkowitzProduct := math.MaxInt
	largestElementMag := 0.0
	numberOfTies := 0
	var ratioOfAccepted float64

	for col := 0; col < lu.size; col++ {
		if lu.colStep[col] >= 0 {
			continue
		}
		largestInCol := lu.findBiggestInCol(col)
		if largestInCol == 0 {
			continue
		}

		for current := lu.firstInCol[col]; current != nil; current = current.nextInCol {
			if !lu.activeRow(current) {
				continue
			}

			magnitude := math.Abs(current.value)
			if magnitude > largestElementMag {
				largestElementMag = magnitude
				largestElement = current
			}

			product := lu.markowitzProduct(current)
			if product > minMarkowitzProduct ||
				magnitude <= lu.opts.RelThreshold*largestInCol ||
				magnitude <= lu.opts.AbsThreshold {
				continue
			}

			if product < minMarkowitzProduct {
				chosenPivot = current
				minMarkowitzProduct = product
				ratioOfAccepted = largestInCol / magnitude
				numberOfTies = 0
				continue
			}

			numberOfTies++
			if ratio := largestInCol / magnitude; ratio < ratioOfAccepted {
				chosenPivot = current
				ratioOfAccepted = ratio
			}
			if numberOfTies >= minMarkowitzProduct*lu.opts.TiesMultiplier {
				return chosenPivot
			}
		}
	}

	if chosenPivot != nil {
		return chosenPivot
	}
	return largestElement
}

func (lu *LU) findDiag(index int) *entry {
	element := lu.firstInCol[index]
	for element != nil && element.row < index {
		element = element.nextInCol
	}
	if element != nil && element.row == index {
		return element
	}
	return nil
}
