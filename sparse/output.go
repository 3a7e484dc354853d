package sparse

import (
	"fmt"
	"io"
	"math"
)

// Print writes m to w. With data set the values are printed, otherwise only
// the structure ('x' for stored, '.' for empty). Wide matrices are split into
// column groups that fit the configured printer width.
func (m *Matrix) Print(w io.Writer, data bool, header bool) {
	if m == nil {
		return
	}

	if header {
		fmt.Fprintf(w, "MATRIX SUMMARY\n\n")
		fmt.Fprintf(w, "Size of matrix = %d x %d.\n\n", m.rows, m.cols)
	}

	if m.rows == 0 || m.cols == 0 {
		return
	}

	columns := m.printerWidth
	if columns <= 0 {
		columns = 80
	}
	if header {
		columns -= 5
	}
	if data {
		columns = (columns + 1) / 10
	}
	columns = max(columns, 1)

	for startCol := 0; startCol < m.cols; startCol += columns {
		stopCol := min(startCol+columns, m.cols) - 1

		if header {
			if data {
				fmt.Fprintf(w, "    ")
				for col := startCol; col <= stopCol; col++ {
					fmt.Fprintf(w, " %9d", col)
				}
				fmt.Fprintf(w, "\n\n")
			} else {
				fmt.Fprintf(w, "Columns %d to %d.\n", startCol, stopCol)
			}
		}

		for row := 0; row < m.rows; row++ {
			if header {
				fmt.Fprintf(w, "%4d", row)
				if !data {
					fmt.Fprintf(w, " ")
				}
			}

			for col := startCol; col <= stopCol; col++ {
				v, ok := m.lookup(row, col)
				switch {
				case ok && data:
					fmt.Fprintf(w, " %9.3g", v)
				case ok:
					fmt.Fprintf(w, "x")
				case data:
					fmt.Fprintf(w, "       ...")
				default:
					fmt.Fprintf(w, ".")
				}
			}
			fmt.Fprintln(w)
		}

		fmt.Fprintln(w)
	}

	if header {
		stats := m.calculateStatistics()
		fmt.Fprintf(w, "\nLargest element in matrix = %-1.4g.\n", stats.largestElement)
		fmt.Fprintf(w, "Smallest element in matrix = %-1.4g.\n", stats.smallestElement)

		density := float64(stats.elementCount) * 100.0 / float64(m.rows*m.cols)
		fmt.Fprintf(w, "\nDensity = %.2f%%.\n", density)
		fmt.Fprintln(w)
	}
}

// lookup is At without the range check, also reporting whether the entry is stored.
func (m *Matrix) lookup(i, j int) (float64, bool) {
	for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
		if m.colInd[k] == j {
			return m.values[k], true
		}
		if m.colInd[k] > j {
			break
		}
	}
	return 0, false
}

type matrixStats struct {
	largestElement  float64
	smallestElement float64
	elementCount    int
}

func (m *Matrix) calculateStatistics() matrixStats {
	stats := matrixStats{
		smallestElement: math.MaxFloat64,
	}

	m.DoNonZero(func(_, _ int, v float64) {
		stats.elementCount++
		magnitude := elementMag(v, 0)

		if magnitude > stats.largestElement {
			stats.largestElement = magnitude
		}
		if magnitude < stats.smallestElement && magnitude != 0 {
			stats.smallestElement = magnitude
		}
	})

	if stats.elementCount == 0 {
		stats.smallestElement = 0
		stats.largestElement = 0
	}

	return stats
}
