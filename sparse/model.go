package sparse

import "errors"

// Ground is the node index of the reference node in admittance templates.
// Stamps that touch it only land on the other node's diagonal.
const Ground = -1

var (
	ErrShape       = errors.New("sparse: dimension mismatch")
	ErrOutOfRange  = errors.New("sparse: index out of range")
	ErrInvalidSize = errors.New("sparse: invalid size")
	ErrSingular    = errors.New("sparse: matrix is singular")
)

const (
	DefaultRelThreshold   = 1e-3
	DefaultTiesMultiplier = 5
)

// Replace spConfig
type Configuration struct {
	KeepZeros    bool // Freeze keeps entries that sum to exactly zero
	PrinterWidth int  // Default: 80
}

// Element is one accumulated (row, col, value) triplet.
type Element struct {
	Row  int
	Col  int
	Real float64
}

// Builder accumulates triplets. Duplicates are summed by Freeze, in insertion order.
type Builder struct {
	Config Configuration

	Rows     int
	Cols     int
	Elements []Element
}

// Matrix is an immutable compressed sparse row matrix. Columns are ascending
// within each row.
type Matrix struct {
	rows   int
	cols   int
	rowPtr []int // [0...rows]
	colInd []int
	values []float64

	printerWidth int
}

type ComplexNumber struct {
	Real float64
	Imag float64
}

// ComplexBuilder keeps the real and imaginary parts of a complex matrix in two
// builders of the same size.
type ComplexBuilder struct {
	Real *Builder
	Imag *Builder
}

// Template addresses the four entries touched by a two-terminal admittance.
type Template struct {
	builder *ComplexBuilder

	Node1 int
	Node2 int
}

// FactorOptions tune pivot selection. Zero values select the defaults.
type FactorOptions struct {
	RelThreshold   float64 // a pivot must reach this fraction of the largest entry in its column
	AbsThreshold   float64 // a pivot must exceed this magnitude
	DiagPivoting   bool    // prefer diagonal pivots, keeping symmetric structure
	TiesMultiplier int     // search stops after this many ties per unit of Markowitz product
}

// entry is one stored value of a matrix under factorization. Rows and columns
// keep their original indices; the lists are ordered by them.
type entry struct {
	row   int
	col   int
	value float64

	nextInRow *entry
	nextInCol *entry
}

// LU is the Markowitz ordered factorization P A Q = L U of a square matrix.
// L keeps the pivots on its diagonal, U has a unit diagonal.
type LU struct {
	size int
	opts FactorOptions

	firstInRow []*entry
	firstInCol []*entry

	// off-pivot entries left in each active row and column
	markowitzRow []int
	markowitzCol []int

	pivots  []*entry // step -> pivot; value holds its reciprocal
	rowStep []int    // row -> step it was pivoted at, -1 while active
	colStep []int

	elements int
	fillins  int
}
