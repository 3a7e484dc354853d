package jabr

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"

	"jabr/sparse"
)

// Voltages are bus voltages in internal bus order. Angles are in radians
// relative to the reference bus.
type Voltages struct {
	Magnitude []float64
	Angle     []float64

	// Residual is the 2-norm of the angle-difference mismatch. It is zero
	// for a tree and measures cycle inconsistency on a mesh.
	Residual float64

	// Fillins is the number of entries created while factoring the reduced
	// Laplacian in mesh mode.
	Fillins int
}

func (v *Voltages) Phasor(bus int) complex128 {
	return cmplx.Rect(v.Magnitude[bus], v.Angle[bus])
}

// RecoverMagnitudes returns |V_i| = sqrt(sqrt2 * U_i).
func RecoverMagnitudes(u []float64) ([]float64, error) {
	vm := make([]float64, len(u))
	for bus, x := range u {
		if x < 0 || math.IsNaN(x) {
			return nil, fmt.Errorf("%w: U[%d] = %g", ErrNonPositiveU, bus, x)
		}
		vm[bus] = math.Sqrt(math.Sqrt2 * x)
	}
	return vm, nil
}

// Recover reconstructs voltages from a solution. Each branch fixes the angle
// difference theta_f - theta_t = atan2(I, R). Tree mode propagates it from the
// reference bus and requires a radial network; Mesh mode fits all angle
// differences in the least-squares sense. Auto picks by topology.
func (net *Network) Recover(u, r, i []float64, mode Topology) (*Voltages, error) {
	n, m := net.NumBuses(), net.NumBranches()
	if len(u) != n || len(r) != m || len(i) != m {
		return nil, fmt.Errorf("%w: got U=%d R=%d I=%d, want U=%d R=I=%d",
			ErrDimension, len(u), len(r), len(i), n, m)
	}

	vm, err := RecoverMagnitudes(u)
	if err != nil {
		return nil, err
	}

	diff := make([]float64, m)
	for col := range diff {
		diff[col] = math.Atan2(i[col], r[col])
	}

	if mode == Auto {
		mode = net.Topology()
	}

	v := &Voltages{Magnitude: vm}
	switch mode {
	case Tree:
		if net.Topology() != Tree {
			return nil, fmt.Errorf("%w: %d buses, %d branches", ErrNotTree, n, m)
		}
		v.Angle = net.treeAngles(diff)
	case Mesh:
		v.Angle, v.Residual, v.Fillins, err = net.meshAngles(diff)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown recovery mode %v", mode)
	}

	return v, nil
}

func (net *Network) treeAngles(diff []float64) []float64 {
	va := make([]float64, net.NumBuses())
	net.walk(func(parent, bus, col int) {
		if parent < 0 {
			return
		}
		if net.Branches.Ends(col).From == parent {
			va[bus] = va[parent] - diff[col]
		} else {
			va[bus] = va[parent] + diff[col]
		}
	})
	return va
}

// meshAngles solves min ||A theta - diff|| over the non-reference angles,
// where A is the reduced branch-bus incidence matrix, through the normal
// equations A^T A theta = A^T diff.
func (net *Network) meshAngles(diff []float64) (va []float64, residual float64, fillins int, err error) {
	n := net.NumBuses()
	va = make([]float64, n)
	if n == 1 {
		return va, 0, 0, nil
	}

	A, L, err := net.reducedLaplacian()
	if err != nil {
		return nil, 0, 0, err
	}

	rhs := make([]float64, n-1)
	A.DoNonZero(func(col, bus int, v float64) {
		rhs[bus] += v * diff[col]
	})

	lu, err := sparse.Factor(L, &sparse.FactorOptions{DiagPivoting: true})
	if err != nil {
		return nil, 0, 0, fmt.Errorf("angle least squares: %w", err)
	}
	theta, err := lu.Solve(rhs)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("angle least squares: %w", err)
	}
	copy(va[1:], theta)

	fit := A.MulVec(theta)
	floats.Sub(fit, diff)

	return va, floats.Norm(fit, 2), lu.FillinCount(), nil
}

// reducedLaplacian returns the branch-bus incidence matrix A with the
// reference column removed (+1 at the from end, -1 at the to end) and
// A^T A, the reduced Laplacian of the network graph. The Laplacian is
// non-singular for a connected network.
func (net *Network) reducedLaplacian() (A, L *sparse.Matrix, err error) {
	n, m := net.NumBuses(), net.NumBranches()
	reduced := func(bus int) int {
		if bus == RefBus {
			return sparse.Ground
		}
		return bus - 1
	}

	incidence := sparse.NewBuilder(m, n-1)
	laplacian := sparse.NewComplexBuilder(n - 1)
	for col := 0; col < m; col++ {
		e := net.Branches.Ends(col)
		if e.From != RefBus {
			incidence.Add(col, e.From-1, 1)
		}
		if e.To != RefBus {
			incidence.Add(col, e.To-1, -1)
		}

		var template sparse.Template
		if err := laplacian.GetAdmittance(reduced(e.From), reduced(e.To), &template); err != nil {
			return nil, nil, err
		}
		template.AddRealQuad(1)
	}
	L, _ = laplacian.Freeze()
	return incidence.Freeze(), L, nil
}

// SpanningTrees counts the spanning trees of the network graph as the
// determinant of its reduced Laplacian. Parallel circuits count once.
// A radial network has exactly one.
func (net *Network) SpanningTrees() (float64, error) {
	if net.NumBuses() == 1 {
		return 1, nil
	}
	_, L, err := net.reducedLaplacian()
	if err != nil {
		return 0, err
	}
	lu, err := sparse.Factor(L, nil)
	if err != nil {
		return 0, err
	}
	return math.Round(lu.Determinant()), nil
}
