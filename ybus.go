package jabr

import (
	"fmt"

	"jabr/sparse"
)

// admittance stamps the bus admittance matrix and returns its real and
// imaginary parts. Untapped branches use a symmetric quad stamp; tapped and
// phase-shifting branches stamp their four entries individually.
func (net *Network) admittance(order []int, branches []Branch) (G, B *sparse.Matrix, err error) {
	y := sparse.NewComplexBuilder(net.NumBuses())

	var template sparse.Template
	for _, br := range branches {
		f, t := net.E2I[br.From], net.E2I[br.To]

		if br.Ratio() == 1 && br.Shift == 0 {
			g, b, err := Z2Y(br.R, br.X)
			if err != nil {
				return nil, nil, fmt.Errorf("branch %d-%d: %w", br.From, br.To, err)
			}
			if err := y.GetAdmittance(f, t, &template); err != nil {
				return nil, nil, err
			}
			template.AddComplexQuad(g, b)

			if br.B != 0 {
				for _, end := range []int{f, t} {
					if err := y.GetAdmittance(end, sparse.Ground, &template); err != nil {
						return nil, nil, err
					}
					template.AddImagQuad(br.B / 2)
				}
			}
			continue
		}

		yff, ytt, yft, ytf, err := branchAdmittance(br)
		if err != nil {
			return nil, nil, err
		}
		y.AddComplexElement(f, f, real(yff), imag(yff))
		y.AddComplexElement(t, t, real(ytt), imag(ytt))
		y.AddComplexElement(f, t, real(yft), imag(yft))
		y.AddComplexElement(t, f, real(ytf), imag(ytf))
	}

	for i, k := range order {
		bus := net.Case.Buses[k]
		if bus.Gs == 0 && bus.Bs == 0 {
			continue
		}
		if err := y.GetAdmittance(i, sparse.Ground, &template); err != nil {
			return nil, nil, err
		}
		template.AddComplexQuad(bus.Gs/net.BaseMVA, bus.Bs/net.BaseMVA)
	}

	G, B = y.Freeze()
	return G, B, nil
}
