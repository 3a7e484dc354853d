package sparse

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/mat"
)

func NewComplexBuilder(size int) *ComplexBuilder {
	return &ComplexBuilder{
		Real: NewBuilder(size, size),
		Imag: NewBuilder(size, size),
	}
}

// Freeze returns the real and imaginary parts as two matrices.
func (b *ComplexBuilder) Freeze() (real, imag *Matrix) {
	return b.Real.Freeze(), b.Imag.Freeze()
}

func (b *ComplexBuilder) AddComplexElement(row, col int, real, imag float64) {
	b.Real.Add(row, col, real)
	b.Imag.Add(row, col, imag)
}

// GetAdmittance binds template to the entries between node1 and node2.
// Either node may be Ground.
func (b *ComplexBuilder) GetAdmittance(node1, node2 int, template *Template) error {
	size := b.Real.Rows
	if node1 == node2 {
		return fmt.Errorf("%w: admittance between node %d and itself", ErrOutOfRange, node1)
	}
	for _, node := range []int{node1, node2} {
		if node != Ground && !inRange(node, size) {
			return fmt.Errorf("%w: node %d of %d", ErrOutOfRange, node, size)
		}
	}

	template.builder = b
	template.Node1 = node1
	template.Node2 = node2

	if node1 == Ground {
		template.Node1, template.Node2 = template.Node2, template.Node1
	}

	return nil
}

/* Element, Quad Template */

func (t *Template) addQuad(part *Builder, value float64) {
	part.Add(t.Node1, t.Node1, value)
	if t.Node2 == Ground {
		return
	}
	part.Add(t.Node2, t.Node2, value)
	part.Add(t.Node2, t.Node1, -value)
	part.Add(t.Node1, t.Node2, -value)
}

func (t *Template) AddRealQuad(real float64) {
	t.addQuad(t.builder.Real, real)
}

func (t *Template) AddImagQuad(imag float64) {
	t.addQuad(t.builder.Imag, imag)
}

func (t *Template) AddComplexQuad(real, imag float64) {
	t.AddRealQuad(real)
	t.AddImagQuad(imag)
}

// Reciprocal returns 1 / (real + j imag) using a scaled division that avoids
// overflow for widely different parts.
func Reciprocal(real, imag float64) (float64, float64) {
	if (real >= imag && real > -imag) || (real < imag && real <= -imag) {
		r := imag / real
		re := 1.0 / (real + r*imag)
		return re, -r * re
	}
	r := real / imag
	im := -1.0 / (imag + r*real)
	return -r * im, im
}

// Dense copies m into a gonum dense matrix. An empty matrix yields an empty Dense.
func (m *Matrix) Dense() *mat.Dense {
	if m.rows == 0 || m.cols == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(m.rows, m.cols, nil)
	m.DoNonZero(func(i, j int, v float64) {
		d.Set(i, j, v)
	})
	return d
}

func inRange[T constraints.Integer](i, n T) bool {
	return i >= 0 && i < n
}

// elementMag is the 1-norm used for printing statistics.
func elementMag[T constraints.Float](real, imag T) T {
	return T(math.Abs(float64(real)) + math.Abs(float64(imag)))
}
