package jabr

import (
	"fmt"
	"math"
	"math/cmplx"

	"jabr/sparse"
)

// Z2Y converts a series impedance r + jx into its admittance g + jb.
func Z2Y(r, x float64) (g, b float64, err error) {
	if r == 0 && x == 0 {
		return 0, 0, ErrDegenerateImpedance
	}
	g, b = sparse.Reciprocal(r, x)
	return g, b, nil
}

// branchAdmittance returns the pi-model entries of a branch in the order
// (from,from), (to,to), (from,to), (to,from).
func branchAdmittance(br Branch) (yff, ytt, yft, ytf complex128, err error) {
	g, b, err := Z2Y(br.R, br.X)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("branch %d-%d: %w", br.From, br.To, err)
	}

	ys := complex(g, b)
	ytt = ys + complex(0, br.B/2)

	tap := br.Ratio()
	if tap == 1 && br.Shift == 0 {
		return ytt, ytt, -ys, -ys, nil
	}

	t := cmplx.Rect(tap, br.Shift*math.Pi/180)
	yff = ytt / complex(tap*tap, 0)
	yft = -ys / cmplx.Conj(t)
	ytf = -ys / t
	return yff, ytt, yft, ytf, nil
}
