package jabr

import (
	"math"

	"jabr/sparse"
)

// Layout places the relaxed variables in one vector x = [U(N); R(M); I(M)].
type Layout struct {
	N int // buses
	M int // branches
}

func (l Layout) U(bus int) int { return bus }
func (l Layout) R(col int) int { return l.N + col }
func (l Layout) I(col int) int { return l.N + l.M + col }
func (l Layout) Len() int      { return l.N + 2*l.M }

// Split returns views of the U, R and I parts of x.
func (l Layout) Split(x []float64) (u, r, i []float64) {
	return x[:l.N], x[l.N : l.N+l.M], x[l.N+l.M : l.N+2*l.M]
}

// Join stacks u, r and i into one vector.
func (l Layout) Join(u, r, i []float64) []float64 {
	x := make([]float64, 0, l.Len())
	x = append(x, u...)
	x = append(x, r...)
	return append(x, i...)
}

// Balance coefficients of bus i. The active row is
//
//	P_i = sqrt2*G[i,i]*U_i + sum_k G[i,j]*R_k +/- B[i,j]*I_k
//
// and the reactive row
//
//	Q_i = -sqrt2*B[i,i]*U_i - sum_k B[i,j]*R_k +/- G[i,j]*I_k
//
// where j is the far end of branch k and the I sign is + at the from end.

func uTerm(G, B *sparse.Matrix, bus int) (p, q float64) {
	return math.Sqrt2 * G.At(bus, bus), -math.Sqrt2 * B.At(bus, bus)
}

func rTerm(G, B *sparse.Matrix, bus, other int) (p, q float64) {
	return G.At(bus, other), -B.At(bus, other)
}

func iTerm(G, B *sparse.Matrix, bus, other int, fromEnd bool) (p, q float64) {
	if fromEnd {
		return B.At(bus, other), G.At(bus, other)
	}
	return -B.At(bus, other), -G.At(bus, other)
}

// BuildUMatrices returns the U blocks of the balance rows of the non-reference
// buses: row r belongs to bus r+1, one column per bus.
func BuildUMatrices(G, B *sparse.Matrix) (Ureal, Ureac *sparse.Matrix) {
	n, _ := G.Dims()
	active, reactive := sparse.NewBuilder(n-1, n), sparse.NewBuilder(n-1, n)

	for bus := RefBus + 1; bus < n; bus++ {
		p, q := uTerm(G, B, bus)
		active.Add(bus-1, bus, p)
		reactive.Add(bus-1, bus, q)
	}

	return active.Freeze(), reactive.Freeze()
}

// BuildRMatrices returns the R blocks, one column per branch of bm.
func BuildRMatrices(G, B *sparse.Matrix, bm *BranchMap) (Rreal, Rreac *sparse.Matrix) {
	n, _ := G.Dims()
	active, reactive := sparse.NewBuilder(n-1, bm.Len()), sparse.NewBuilder(n-1, bm.Len())

	for bus := RefBus + 1; bus < n; bus++ {
		for _, col := range bm.incident[bus] {
			p, q := rTerm(G, B, bus, bm.Other(col, bus))
			active.Add(bus-1, col, p)
			reactive.Add(bus-1, col, q)
		}
	}

	return active.Freeze(), reactive.Freeze()
}

// BuildIMatrices returns the I blocks. I is antisymmetric in the branch
// direction, so the to end carries the negated coefficients.
func BuildIMatrices(G, B *sparse.Matrix, bm *BranchMap) (Ireal, Ireac *sparse.Matrix) {
	n, _ := G.Dims()
	active, reactive := sparse.NewBuilder(n-1, bm.Len()), sparse.NewBuilder(n-1, bm.Len())

	for bus := RefBus + 1; bus < n; bus++ {
		for _, col := range bm.incident[bus] {
			p, q := iTerm(G, B, bus, bm.Other(col, bus), bm.ends[col].From == bus)
			active.Add(bus-1, col, p)
			reactive.Add(bus-1, col, q)
		}
	}

	return active.Freeze(), reactive.Freeze()
}

// BuildConstraintMatrix returns [U | R | I] for the active and reactive
// balance rows of the non-reference buses.
func BuildConstraintMatrix(G, B *sparse.Matrix, bm *BranchMap) (Areal, Areac *sparse.Matrix) {
	Ureal, Ureac := BuildUMatrices(G, B)
	Rreal, Rreac := BuildRMatrices(G, B, bm)
	Ireal, Ireac := BuildIMatrices(G, B, bm)

	// every block has n-1 rows, so HStack cannot fail
	Areal, _ = sparse.HStack(Ureal, Rreal, Ireal)
	Areac, _ = sparse.HStack(Ureac, Rreac, Ireac)
	return Areal, Areac
}

// Coefficients is a sparse row over the relaxed variable vector.
type Coefficients struct {
	Cols []int
	Vals []float64
}

func (c *Coefficients) add(col int, v float64) {
	if v == 0 {
		return
	}
	c.Cols = append(c.Cols, col)
	c.Vals = append(c.Vals, v)
}

// Dot returns c . x.
func (c Coefficients) Dot(x []float64) float64 {
	sum := 0.0
	for k, col := range c.Cols {
		sum += c.Vals[k] * x[col]
	}
	return sum
}

// BalanceRows returns the active and reactive balance rows of any bus,
// including the reference bus.
func BalanceRows(G, B *sparse.Matrix, bm *BranchMap, bus int) (p, q Coefficients) {
	n, _ := G.Dims()
	l := Layout{N: n, M: bm.Len()}

	pu, qu := uTerm(G, B, bus)
	p.add(l.U(bus), pu)
	q.add(l.U(bus), qu)

	for _, col := range bm.incident[bus] {
		pr, qr := rTerm(G, B, bus, bm.Other(col, bus))
		p.add(l.R(col), pr)
		q.add(l.R(col), qr)
	}
	for _, col := range bm.incident[bus] {
		pi, qi := iTerm(G, B, bus, bm.Other(col, bus), bm.ends[col].From == bus)
		p.add(l.I(col), pi)
		q.add(l.I(col), qi)
	}

	return p, q
}
