package jabr_test

import (
	"math"
	"math/cmplx"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jabr"
	"jabr/casefile"
)

func loadNetwork(t *testing.T, name string) *jabr.Network {
	t.Helper()
	c, err := casefile.ParseFile(filepath.Join("cases", name+".m"))
	require.NoError(t, err)
	net, err := jabr.NewNetwork(c)
	require.NoError(t, err)
	return net
}

// threeBus is a small case built in Go so error paths can be edited freely.
func threeBus() *jabr.Case {
	return &jabr.Case{
		Name:    "three",
		BaseMVA: 100,
		Buses: []jabr.Bus{
			{ID: 10, Type: jabr.PQ, Pd: 30, Qd: 10, Vm: 1},
			{ID: 20, Type: jabr.Ref, Vm: 1.05},
			{ID: 30, Type: jabr.PQ, Pd: 20, Vm: 1},
		},
		Gens: []jabr.Gen{
			{Bus: 20, Pg: 50, Qmax: 100, Qmin: -100, Vg: 1.04, Status: 1},
		},
		Branches: []jabr.Branch{
			{From: 10, To: 20, R: 0.01, X: 0.1, Status: 1},
			{From: 30, To: 10, R: 0.02, X: 0.2, Status: 1},
		},
	}
}

func TestNewNetworkCase5(t *testing.T) {
	net := loadNetwork(t, "case5_renumber_tree")

	assert.Equal(t, []int{5, 1, 2, 3, 4}, net.I2E)
	assert.Equal(t, map[int]int{5: 0, 1: 1, 2: 2, 3: 3, 4: 4}, net.E2I)
	assert.Equal(t, []jabr.BusType{jabr.Ref, jabr.PQ, jabr.PQ, jabr.PQ, jabr.PQ}, net.Bus)
	assert.Equal(t, 5, net.NumBuses())
	assert.Equal(t, 4, net.NumBranches())
	assert.Equal(t, jabr.Tree, net.Topology())

	assert.InDeltaSlice(t, []float64{4, -1, -1, -1, -1}, net.P, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0, 0, 0, 0}, net.Q, 1e-12)
	assert.InDeltaSlice(t, []float64{1, 1, 1, 1, 1}, net.Vset, 1e-12)

	want := []jabr.Ends{{From: 0, To: 2}, {From: 0, To: 3}, {From: 1, To: 3}, {From: 3, To: 4}}
	for col, e := range want {
		assert.Equal(t, e, net.Branches.Ends(col))
	}
}

func TestNewNetworkMesh(t *testing.T) {
	net := loadNetwork(t, "case4_mesh")

	assert.Equal(t, []int{1, 2, 3, 4}, net.I2E)
	assert.Equal(t, []jabr.BusType{jabr.Ref, jabr.PV, jabr.PQ, jabr.PQ}, net.Bus)
	assert.Equal(t, jabr.Mesh, net.Topology())

	// parallel circuits share a column, the out of service branch is dropped
	assert.Equal(t, 4, net.NumBranches())

	assert.InDelta(t, 1.02, net.Vset[0], 1e-12)
	assert.InDelta(t, 1.01, net.Vset[1], 1e-12)
	assert.InDelta(t, 0.4, net.P[1], 1e-12)
	assert.InDelta(t, -0.6, net.Qmin[1], 1e-12)
	assert.InDelta(t, 0.4, net.Qmax[1], 1e-12)

	// the bus shunt lands on the diagonal of B
	_, b, err := jabr.Z2Y(0.02, 0.10)
	require.NoError(t, err)
	_, b23, err := jabr.Z2Y(0.015, 0.09)
	require.NoError(t, err)
	tb, err := transformerB(0.05, 0.98)
	require.NoError(t, err)
	want := b + 0.03/2 + b23 + 0.02/2 + tb + 0.1
	assert.InDelta(t, want, net.B.At(2, 2), 1e-9)
}

// transformerB is the from-end diagonal susceptance of a lossless tapped branch.
func transformerB(x, tap float64) (float64, error) {
	_, b, err := jabr.Z2Y(0, x)
	return b / (tap * tap), err
}

func TestBranchMap(t *testing.T) {
	net := loadNetwork(t, "case5_renumber_tree")
	bm := net.Branches

	col, fromEnd, ok := bm.Column(0, 2)
	require.True(t, ok)
	assert.Equal(t, 0, col)
	assert.True(t, fromEnd)

	col, fromEnd, ok = bm.Column(4, 3)
	require.True(t, ok)
	assert.Equal(t, 3, col)
	assert.False(t, fromEnd)

	_, _, ok = bm.Column(1, 2)
	assert.False(t, ok)

	assert.Equal(t, []int{1, 2, 3}, bm.Incident(3))
	assert.Equal(t, 1, bm.Other(2, 3))
	assert.Equal(t, 3, bm.Other(2, 1))
}

func TestNewNetworkErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *jabr.Case)
		want   error
	}{
		{
			name:   "no reference",
			modify: func(c *jabr.Case) { c.Buses[1].Type = jabr.PV },
			want:   jabr.ErrNoReference,
		},
		{
			name:   "islanded",
			modify: func(c *jabr.Case) { c.Branches[1].Status = 0 },
			want:   jabr.ErrIslanded,
		},
		{
			name:   "unknown generator bus",
			modify: func(c *jabr.Case) { c.Gens[0].Bus = 99 },
			want:   jabr.ErrUnknownBus,
		},
		{
			name:   "unknown branch bus",
			modify: func(c *jabr.Case) { c.Branches[0].To = 99 },
			want:   jabr.ErrUnknownBus,
		},
		{
			name:   "zero impedance",
			modify: func(c *jabr.Case) { c.Branches[0].R, c.Branches[0].X = 0, 0 },
			want:   jabr.ErrDegenerateImpedance,
		},
		{
			name:   "self loop",
			modify: func(c *jabr.Case) { c.Branches[0].To = c.Branches[0].From },
			want:   jabr.ErrInvalidCase,
		},
		{
			name:   "duplicate bus",
			modify: func(c *jabr.Case) { c.Buses[2].ID = 10 },
			want:   jabr.ErrInvalidCase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := threeBus()
			tt.modify(c)
			_, err := jabr.NewNetwork(c)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewNetworkIsolatedBus(t *testing.T) {
	c := threeBus()
	c.Buses = append(c.Buses, jabr.Bus{ID: 40, Type: jabr.Isolated, Pd: 10})

	net, err := jabr.NewNetwork(c)
	require.NoError(t, err)
	assert.Equal(t, []int{20, 10, 30}, net.I2E)
	assert.InDelta(t, 1.04, net.Vset[0], 1e-12)
	assert.InDelta(t, -0.3, net.P[1], 1e-12)
	assert.InDelta(t, -0.1, net.Q[1], 1e-12)
}

func TestZ2Y(t *testing.T) {
	g, b, err := jabr.Z2Y(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.0, g)
	assert.Equal(t, -1.0, b)

	g, b, err = jabr.Z2Y(.02, .2)
	require.NoError(t, err)
	assert.InDelta(t, 0.495049504950495, g, 1e-12)
	assert.InDelta(t, -4.9504950495049505, b, 1e-12)

	_, _, err = jabr.Z2Y(0, 0)
	assert.ErrorIs(t, err, jabr.ErrDegenerateImpedance)
}

func TestZ2YIsReciprocal(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 200 {
		r, x := rng.Float64()*0.1, rng.NormFloat64()
		g, b, err := jabr.Z2Y(r, x)
		require.NoError(t, err)
		one := complex(g, b) * complex(r, x)
		assert.InDelta(t, 1, real(one), 1e-12, "r=%g x=%g", r, x)
		assert.InDelta(t, 0, imag(one), 1e-12, "r=%g x=%g", r, x)
	}
}

// assertBalanceRows checks that the balance rows evaluated at the relaxed
// voltages reproduce S = V conj(Y V) at every bus.
func assertBalanceRows(t *testing.T, net *jabr.Network, vm, va []float64) {
	t.Helper()
	n := net.NumBuses()

	u, r, i, err := net.Relax(vm, va)
	require.NoError(t, err)
	l := jabr.Layout{N: n, M: net.NumBranches()}
	x := l.Join(u, r, i)

	G, B := net.G.Dense(), net.B.Dense()
	for bus := 0; bus < n; bus++ {
		var yv complex128
		for j := 0; j < n; j++ {
			yv += complex(G.At(bus, j), B.At(bus, j)) * cmplx.Rect(vm[j], va[j])
		}
		s := cmplx.Rect(vm[bus], va[bus]) * cmplx.Conj(yv)

		p, q := jabr.BalanceRows(net.G, net.B, net.Branches, bus)
		assert.InDelta(t, real(s), p.Dot(x), 1e-10, "P at bus %d", bus)
		assert.InDelta(t, imag(s), q.Dot(x), 1e-10, "Q at bus %d", bus)
	}
}

// Holds for tapped and parallel branches too.
func TestBalanceRowsMatchInjections(t *testing.T) {
	for _, name := range []string{"case5_renumber_tree", "case4_mesh"} {
		t.Run(name, func(t *testing.T) {
			net := loadNetwork(t, name)
			n := net.NumBuses()

			vm := make([]float64, n)
			va := make([]float64, n)
			for k := range vm {
				vm[k] = 1 + 0.02*float64(k%3) - 0.01*float64(k)
				va[k] = -0.03 * float64(k)
			}
			assertBalanceRows(t, net, vm, va)
		})
	}
}

func TestPhaseShifter(t *testing.T) {
	c := threeBus()
	c.Branches[0].Shift = 10
	c.Branches[1].Tap = 0.95
	c.Branches[1].Shift = -5

	net, err := jabr.NewNetwork(c)
	require.NoError(t, err)
	f, to := net.E2I[10], net.E2I[20]

	g, b, err := jabr.Z2Y(0.01, 0.1)
	require.NoError(t, err)
	ys := complex(g, b)
	shift := cmplx.Rect(1, 10*math.Pi/180)

	yft := -ys / cmplx.Conj(shift)
	ytf := -ys / shift
	assert.InDelta(t, real(yft), net.G.At(f, to), 1e-12)
	assert.InDelta(t, imag(yft), net.B.At(f, to), 1e-12)
	assert.InDelta(t, real(ytf), net.G.At(to, f), 1e-12)
	assert.InDelta(t, imag(ytf), net.B.At(to, f), 1e-12)
	assert.NotEqual(t, net.G.At(f, to), net.G.At(to, f))
	assert.NotEqual(t, net.B.At(f, to), net.B.At(to, f))

	// a pure phase shift leaves the diagonal untouched
	assert.InDelta(t, g, net.G.At(to, to), 1e-12)

	vm := []float64{1.04, 0.98, 0.96}
	va := []float64{0, -0.08, -0.11}
	assertBalanceRows(t, net, vm, va)

	u, r, i, err := net.Relax(vm, va)
	require.NoError(t, err)
	v, err := net.Recover(u, r, i, jabr.Auto)
	require.NoError(t, err)
	assert.InDeltaSlice(t, vm, v.Magnitude, 1e-12)
	assert.InDeltaSlice(t, va, v.Angle, 1e-12)
}

func TestRelaxSatisfiesCones(t *testing.T) {
	net := loadNetwork(t, "case4_mesh")
	u, r, i, err := net.Relax([]float64{1.02, 1.01, 0.97, 0.95}, []float64{0, -0.05, -0.1, -0.12})
	require.NoError(t, err)

	for col := 0; col < net.NumBranches(); col++ {
		e := net.Branches.Ends(col)
		assert.InDelta(t, 2*u[e.From]*u[e.To], r[col]*r[col]+i[col]*i[col], 1e-12)
	}
	assert.InDelta(t, 1.02*1.02/math.Sqrt2, u[0], 1e-15)

	_, _, _, err = net.Relax([]float64{1}, []float64{0})
	assert.ErrorIs(t, err, jabr.ErrDimension)
}
