package jabr_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jabr"
	"jabr/sparse"
)

func assertMatrix(t *testing.T, want [][]float64, got *sparse.Matrix) {
	t.Helper()
	rows, cols := got.Dims()
	require.Equal(t, len(want), rows)
	require.Equal(t, len(want[0]), cols)
	for i := range want {
		for j := range want[i] {
			assert.InDelta(t, want[i][j], got.At(i, j), 1e-9, "entry (%d, %d)", i, j)
		}
	}
}

func case5Admittance(t *testing.T) (g, b, s2 float64) {
	t.Helper()
	g, b, err := jabr.Z2Y(.01, .1)
	require.NoError(t, err)
	return g, b, math.Sqrt2
}

func TestBuildUMatrices(t *testing.T) {
	net := loadNetwork(t, "case5_renumber_tree")
	g, b, S2 := case5Admittance(t)

	Ureal, Ureac := jabr.BuildUMatrices(net.G, net.B)
	assertMatrix(t, [][]float64{
		{0, g * S2, 0, 0, 0},
		{0, 0, g * S2, 0, 0},
		{0, 0, 0, 3 * g * S2, 0},
		{0, 0, 0, 0, g * S2},
	}, Ureal)
	assertMatrix(t, [][]float64{
		{0, -b * S2, 0, 0, 0},
		{0, 0, -b * S2, 0, 0},
		{0, 0, 0, -3 * b * S2, 0},
		{0, 0, 0, 0, -b * S2},
	}, Ureac)
}

func TestBuildRMatrices(t *testing.T) {
	net := loadNetwork(t, "case5_renumber_tree")
	g, b, _ := case5Admittance(t)

	Rreal, Rreac := jabr.BuildRMatrices(net.G, net.B, net.Branches)
	assertMatrix(t, [][]float64{
		{0, 0, -g, 0},
		{-g, 0, 0, 0},
		{0, -g, -g, -g},
		{0, 0, 0, -g},
	}, Rreal)
	assertMatrix(t, [][]float64{
		{0, 0, b, 0},
		{b, 0, 0, 0},
		{0, b, b, b},
		{0, 0, 0, b},
	}, Rreac)
}

func TestBuildIMatrices(t *testing.T) {
	net := loadNetwork(t, "case5_renumber_tree")
	g, b, _ := case5Admittance(t)

	Ireal, Ireac := jabr.BuildIMatrices(net.G, net.B, net.Branches)
	assertMatrix(t, [][]float64{
		{0, 0, -b, 0},
		{b, 0, 0, 0},
		{0, b, b, -b},
		{0, 0, 0, b},
	}, Ireal)
	assertMatrix(t, [][]float64{
		{0, 0, -g, 0},
		{g, 0, 0, 0},
		{0, g, g, -g},
		{0, 0, 0, g},
	}, Ireac)
}

func TestBuildConstraintMatrix(t *testing.T) {
	net := loadNetwork(t, "case5_renumber_tree")
	g, b, S2 := case5Admittance(t)

	Areal, Areac := jabr.BuildConstraintMatrix(net.G, net.B, net.Branches)
	assertMatrix(t, [][]float64{
		{0, g * S2, 0, 0, 0, 0, 0, -g, 0, 0, 0, -b, 0},
		{0, 0, g * S2, 0, 0, -g, 0, 0, 0, b, 0, 0, 0},
		{0, 0, 0, 3 * g * S2, 0, 0, -g, -g, -g, 0, b, b, -b},
		{0, 0, 0, 0, g * S2, 0, 0, 0, -g, 0, 0, 0, b},
	}, Areal)
	assertMatrix(t, [][]float64{
		{0, -b * S2, 0, 0, 0, 0, 0, b, 0, 0, 0, -g, 0},
		{0, 0, -b * S2, 0, 0, b, 0, 0, 0, g, 0, 0, 0},
		{0, 0, 0, -3 * b * S2, 0, 0, b, b, b, 0, g, g, -g},
		{0, 0, 0, 0, -b * S2, 0, 0, 0, b, 0, 0, 0, g},
	}, Areac)
}

func TestBuildIsIdempotent(t *testing.T) {
	for _, name := range []string{"case5_renumber_tree", "case4_mesh"} {
		net := loadNetwork(t, name)

		Areal1, Areac1 := jabr.BuildConstraintMatrix(net.G, net.B, net.Branches)
		Areal2, Areac2 := jabr.BuildConstraintMatrix(net.G, net.B, net.Branches)
		assert.True(t, Areal1.Equal(Areal2), name)
		assert.True(t, Areac1.Equal(Areac2), name)

		again := loadNetwork(t, name)
		Areal3, _ := jabr.BuildConstraintMatrix(again.G, again.B, again.Branches)
		assert.True(t, Areal1.Equal(Areal3), name)
	}
}

// The balance rows of the non-reference buses are the rows of the
// constraint matrices.
func TestBalanceRowsMatchConstraintMatrix(t *testing.T) {
	net := loadNetwork(t, "case4_mesh")
	Areal, Areac := jabr.BuildConstraintMatrix(net.G, net.B, net.Branches)

	for bus := 1; bus < net.NumBuses(); bus++ {
		p, q := jabr.BalanceRows(net.G, net.B, net.Branches, bus)
		for k, col := range p.Cols {
			assert.InDelta(t, Areal.At(bus-1, col), p.Vals[k], 1e-15)
		}
		for k, col := range q.Cols {
			assert.InDelta(t, Areac.At(bus-1, col), q.Vals[k], 1e-15)
		}
		cols, _ := Areal.Row(bus - 1)
		assert.Len(t, p.Cols, len(cols))
	}
}

func TestBuildConstraintMatrixSingleBus(t *testing.T) {
	net, err := jabr.NewNetwork(&jabr.Case{
		Name:    "single",
		BaseMVA: 100,
		Buses:   []jabr.Bus{{ID: 1, Type: jabr.Ref, Vm: 1}},
	})
	require.NoError(t, err)

	Areal, Areac := jabr.BuildConstraintMatrix(net.G, net.B, net.Branches)
	for _, m := range []*sparse.Matrix{Areal, Areac} {
		rows, cols := m.Dims()
		assert.Zero(t, rows)
		assert.Equal(t, 1, cols)
	}
}
