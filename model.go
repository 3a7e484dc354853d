package jabr

import (
	"fmt"
	"math"
	"strings"
)

type Objective int

const (
	// ObjectiveLoss minimizes the active injection of the reference bus.
	ObjectiveLoss Objective = iota
	// ObjectiveJabr maximizes the sum of the R variables.
	ObjectiveJabr
)

func (o Objective) String() string {
	switch o {
	case ObjectiveLoss:
		return "loss"
	case ObjectiveJabr:
		return "jabr"
	}
	return fmt.Sprintf("Objective(%d)", int(o))
}

func ParseObjective(s string) (Objective, error) {
	switch strings.ToLower(s) {
	case "", "loss":
		return ObjectiveLoss, nil
	case "jabr":
		return ObjectiveJabr, nil
	}
	return ObjectiveLoss, fmt.Errorf("unknown objective %q", s)
}

type ModelOptions struct {
	Objective Objective
	// EnforceQLimits adds a reactive range row for every PV bus. Without it the
	// reactive injection of PV buses is free.
	EnforceQLimits bool
}

type Bound struct {
	Lower, Upper float64
}

// Fixed reports whether the bound pins the variable to one value.
func (b Bound) Fixed() bool {
	return b.Lower == b.Upper
}

// Row is the linear constraint Lower <= Coefficients . x <= Upper.
type Row struct {
	Name string
	Coefficients
	Lower, Upper float64
}

func (r Row) Equality() bool {
	return r.Lower == r.Upper
}

// Cone is the rotated cone 2 U[From] U[To] >= R[Branch]^2 + I[Branch]^2.
type Cone struct {
	Branch int
	From   int
	To     int
}

// Model is the solver-neutral form of the relaxation: minimize Cost . x over
// x = [U; R; I] subject to Rows, Bounds and Cones.
type Model struct {
	Name string
	Layout

	Cost   Coefficients
	Rows   []Row
	Bounds []Bound
	Cones  []Cone

	// Start is the flat-start point: set-point magnitudes and zero angles.
	Start []float64
}

// BuildModel packages the balance rows of net, its voltage set points and
// one cone per branch.
func BuildModel(net *Network, opts ModelOptions) (*Model, error) {
	n, m := net.NumBuses(), net.NumBranches()
	l := Layout{N: n, M: m}

	model := &Model{
		Name:   net.Case.Name,
		Layout: l,
		Bounds: make([]Bound, l.Len()),
	}

	for bus := 0; bus < n; bus++ {
		switch net.Bus[bus] {
		case Ref, PV:
			u := net.Vset[bus] * net.Vset[bus] / math.Sqrt2
			model.Bounds[l.U(bus)] = Bound{Lower: u, Upper: u}
		default:
			model.Bounds[l.U(bus)] = Bound{Lower: 0, Upper: math.Inf(1)}
		}
	}
	for col := 0; col < m; col++ {
		model.Bounds[l.R(col)] = Bound{Lower: math.Inf(-1), Upper: math.Inf(1)}
		model.Bounds[l.I(col)] = Bound{Lower: math.Inf(-1), Upper: math.Inf(1)}
	}

	for bus := RefBus + 1; bus < n; bus++ {
		p, q := BalanceRows(net.G, net.B, net.Branches, bus)
		model.Rows = append(model.Rows, Row{
			Name:         fmt.Sprintf("p%d", bus),
			Coefficients: p,
			Lower:        net.P[bus],
			Upper:        net.P[bus],
		})

		switch {
		case net.Bus[bus] == PQ:
			model.Rows = append(model.Rows, Row{
				Name:         fmt.Sprintf("q%d", bus),
				Coefficients: q,
				Lower:        net.Q[bus],
				Upper:        net.Q[bus],
			})
		case opts.EnforceQLimits:
			if net.Qmin[bus] > net.Qmax[bus] {
				return nil, fmt.Errorf("bus %d: reactive limits [%g, %g] are empty",
					net.I2E[bus], net.Qmin[bus], net.Qmax[bus])
			}
			model.Rows = append(model.Rows, Row{
				Name:         fmt.Sprintf("q%d", bus),
				Coefficients: q,
				Lower:        net.Qmin[bus],
				Upper:        net.Qmax[bus],
			})
		}
	}

	for col := 0; col < m; col++ {
		e := net.Branches.Ends(col)
		model.Cones = append(model.Cones, Cone{Branch: col, From: e.From, To: e.To})
	}

	switch opts.Objective {
	case ObjectiveLoss:
		model.Cost, _ = BalanceRows(net.G, net.B, net.Branches, RefBus)
	case ObjectiveJabr:
		for col := 0; col < m; col++ {
			model.Cost.add(l.R(col), -1)
		}
	default:
		return nil, fmt.Errorf("unknown objective %v", opts.Objective)
	}

	u, r, i, err := net.Relax(net.Vset, make([]float64, n))
	if err != nil {
		return nil, err
	}
	model.Start = l.Join(u, r, i)

	return model, nil
}

// VarName is the solver-facing name of variable k: u<bus>, r<branch> or i<branch>.
func (m *Model) VarName(k int) string {
	switch {
	case k < m.N:
		return fmt.Sprintf("u%d", k)
	case k < m.N+m.M:
		return fmt.Sprintf("r%d", k-m.N)
	}
	return fmt.Sprintf("i%d", k-m.N-m.M)
}

// Value returns Cost . x.
func (m *Model) Value(x []float64) float64 {
	return m.Cost.Dot(x)
}

// Violation returns the largest row violation and the largest cone violation
// of x. Both are zero for a feasible point.
func (m *Model) Violation(x []float64) (rows, cones float64) {
	for _, row := range m.Rows {
		v := row.Dot(x)
		rows = math.Max(rows, math.Max(row.Lower-v, v-row.Upper))
	}
	for _, c := range m.Cones {
		cones = math.Max(cones, -m.ConeSlack(c, x))
	}
	return rows, cones
}

// ConeSlack returns 2 U_f U_t - R^2 - I^2, non-negative inside the cone.
func (m *Model) ConeSlack(c Cone, x []float64) float64 {
	r, i := x[m.R(c.Branch)], x[m.I(c.Branch)]
	return 2*x[m.U(c.From)]*x[m.U(c.To)] - r*r - i*i
}
