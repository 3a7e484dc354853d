package sparse // import "jabr/sparse"

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
)

func Create(rows, cols int, config *Configuration) (*Builder, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %d x %d", ErrInvalidSize, rows, cols)
	}

	defaultConfig := Configuration{
		KeepZeros:    false,
		PrinterWidth: 80,
	}

	if config == nil {
		config = &defaultConfig
	}
	cfg := *config
	if cfg.PrinterWidth <= 0 {
		cfg.PrinterWidth = defaultConfig.PrinterWidth
	}

	return &Builder{
		Config: cfg,
		Rows:   rows,
		Cols:   cols,
	}, nil
}

// NewBuilder is Create with the default configuration. It panics on a negative size.
func NewBuilder(rows, cols int) *Builder {
	b, err := Create(rows, cols, nil)
	if err != nil {
		panic(err)
	}
	return b
}

// Add accumulates value at (row, col). Out-of-range indices panic.
func (b *Builder) Add(row, col int, value float64) {
	if !inRange(row, b.Rows) || !inRange(col, b.Cols) {
		panic(fmt.Errorf("%w: (%d, %d) in %d x %d", ErrOutOfRange, row, col, b.Rows, b.Cols))
	}

	b.Elements = append(b.Elements, Element{Row: row, Col: col, Real: value})
}

// ElementCount is the number of triplets added so far, duplicates included.
func (b *Builder) ElementCount() int {
	return len(b.Elements)
}

// Freeze compresses the accumulated triplets into a Matrix. The builder can
// keep accumulating afterwards; later entries do not affect the returned matrix.
func (b *Builder) Freeze() *Matrix {
	elements := slices.Clone(b.Elements)
	slices.SortStableFunc(elements, func(x, y Element) int {
		if c := cmp.Compare(x.Row, y.Row); c != 0 {
			return c
		}
		return cmp.Compare(x.Col, y.Col)
	})

	m := &Matrix{
		rows:         b.Rows,
		cols:         b.Cols,
		rowPtr:       make([]int, b.Rows+1),
		colInd:       make([]int, 0, len(elements)),
		values:       make([]float64, 0, len(elements)),
		printerWidth: b.Config.PrinterWidth,
	}

	for k := 0; k < len(elements); {
		row, col := elements[k].Row, elements[k].Col
		sum := 0.0
		for ; k < len(elements) && elements[k].Row == row && elements[k].Col == col; k++ {
			sum += elements[k].Real
		}
		if sum == 0 && !b.Config.KeepZeros {
			continue
		}
		m.colInd = append(m.colInd, col)
		m.values = append(m.values, sum)
		m.rowPtr[row+1]++
	}

	for i := 1; i <= m.rows; i++ {
		m.rowPtr[i] += m.rowPtr[i-1]
	}

	return m
}

func (m *Matrix) Dims() (rows, cols int) {
	return m.rows, m.cols
}

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int {
	return len(m.values)
}

// At returns the entry at (i, j), zero when it is not stored.
func (m *Matrix) At(i, j int) float64 {
	if !inRange(i, m.rows) || !inRange(j, m.cols) {
		panic(fmt.Errorf("%w: (%d, %d) in %d x %d", ErrOutOfRange, i, j, m.rows, m.cols))
	}

	cols := m.colInd[m.rowPtr[i]:m.rowPtr[i+1]]
	k := sort.SearchInts(cols, j)
	if k < len(cols) && cols[k] == j {
		return m.values[m.rowPtr[i]+k]
	}
	return 0
}

// Row returns copies of the column indices and values stored in row i.
func (m *Matrix) Row(i int) (cols []int, values []float64) {
	if !inRange(i, m.rows) {
		panic(fmt.Errorf("%w: row %d of %d", ErrOutOfRange, i, m.rows))
	}
	start, end := m.rowPtr[i], m.rowPtr[i+1]
	return slices.Clone(m.colInd[start:end]), slices.Clone(m.values[start:end])
}

// DoNonZero calls fn for every stored entry in row-major order.
func (m *Matrix) DoNonZero(fn func(i, j int, v float64)) {
	for i := 0; i < m.rows; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			fn(i, m.colInd[k], m.values[k])
		}
	}
}

// DoRowNonZero calls fn for every stored entry of row i.
func (m *Matrix) DoRowNonZero(i int, fn func(i, j int, v float64)) {
	if !inRange(i, m.rows) {
		panic(fmt.Errorf("%w: row %d of %d", ErrOutOfRange, i, m.rows))
	}
	for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
		fn(i, m.colInd[k], m.values[k])
	}
}

// MulVec returns m * x.
func (m *Matrix) MulVec(x []float64) []float64 {
	if len(x) != m.cols {
		panic(fmt.Errorf("%w: vector of %d for %d columns", ErrShape, len(x), m.cols))
	}

	y := make([]float64, m.rows)
	for i := 0; i < m.rows; i++ {
		sum := 0.0
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			sum += m.values[k] * x[m.colInd[k]]
		}
		y[i] = sum
	}
	return y
}

// Equal reports whether a and b have the same shape, structure and values.
func (m *Matrix) Equal(o *Matrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.rows == o.rows && m.cols == o.cols &&
		slices.Equal(m.rowPtr, o.rowPtr) &&
		slices.Equal(m.colInd, o.colInd) &&
		slices.Equal(m.values, o.values)
}

// HStack concatenates matrices with the same number of rows side by side.
func HStack(ms ...*Matrix) (*Matrix, error) {
	if len(ms) == 0 {
		return nil, fmt.Errorf("%w: nothing to stack", ErrShape)
	}

	rows, cols := ms[0].rows, 0
	for k, m := range ms {
		if m.rows != rows {
			return nil, fmt.Errorf("%w: block %d has %d rows, want %d", ErrShape, k, m.rows, rows)
		}
		cols += m.cols
	}

	b := NewBuilder(rows, cols)
	b.Config.KeepZeros = true
	b.Config.PrinterWidth = ms[0].printerWidth

	offset := 0
	for _, m := range ms {
		m.DoNonZero(func(i, j int, v float64) {
			b.Add(i, offset+j, v)
		})
		offset += m.cols
	}

	return b.Freeze(), nil
}
