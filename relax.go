package jabr

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Relax maps bus voltages onto the relaxed variables. For every branch (f, t)
//
//	U_i = |V_i|^2 / sqrt2,  R + jI = V_f conj(V_t)
//
// so the cones hold with equality at the returned point.
func (net *Network) Relax(vm, va []float64) (u, r, i []float64, err error) {
	n, m := net.NumBuses(), net.NumBranches()
	if len(vm) != n || len(va) != n {
		return nil, nil, nil, fmt.Errorf("%w: got %d magnitudes and %d angles for %d buses",
			ErrDimension, len(vm), len(va), n)
	}

	u = make([]float64, n)
	for bus, v := range vm {
		u[bus] = v * v / math.Sqrt2
	}

	r, i = make([]float64, m), make([]float64, m)
	for col := 0; col < m; col++ {
		e := net.Branches.Ends(col)
		w := cmplx.Rect(vm[e.From], va[e.From]) * cmplx.Conj(cmplx.Rect(vm[e.To], va[e.To]))
		r[col], i[col] = real(w), imag(w)
	}

	return u, r, i, nil
}
