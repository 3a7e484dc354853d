package mosek

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jabr"
	"jabr/casefile"
	"jabr/solver/command"
)

func TestParseOutputFileCase14(t *testing.T) {
	out, err := ParseOutputFile(filepath.Join("testdata", "case14.out"))
	require.NoError(t, err)

	assert.Equal(t, jabr.PrimalAndDualFeasible, out.ProblemStatus)
	assert.Equal(t, jabr.Optimal, out.SolutionStatus)
	assert.InDelta(t, 2.59103145, out.PrimalObjective, 1e-9)

	v := []float64{1.06, 1.045, 1.01, 0.88095, 0.8999, 0.92693, 0.87004, 0.93897,
		0.82911, 0.8196, 0.9194, 0.91413, 0.90867, 0.78673}
	require.Len(t, out.U, len(v))
	for k, x := range v {
		assert.InDelta(t, x*x/math.Sqrt2, out.U[k], 1e-4, "u%d", k)
	}
	assert.Len(t, out.R, 13)
	assert.Len(t, out.I, 13)

	sol := out.Solution()
	assert.True(t, sol.Optimal())
	assert.Equal(t, Name, sol.Backend)
}

const report = `MOSEK Version 10.1.21 (Build date: 2023-12-13)
NAME                : case
PROBLEM STATUS      : %s
SOLUTION STATUS     : %s
PRIMAL OBJECTIVE    : 1.5

CONSTRAINTS
INDEX      NAME    AT ACTIVITY
0          p1      EQ -1.0

VARIABLES
INDEX      NAME    AT ACTIVITY                 LOWER LIMIT
0          u0      FX 7.07106781186547e-01     7.07106781186547e-01
1          u1      SB %s                       0
2          r0      SB 0.9                      NONE
3          i0      SB -0.1                     NONE

`

func TestParseOutput(t *testing.T) {
	src := fmt.Sprintf(report, "PRIMAL_INFEASIBLE", "PRIMAL_INFEASIBLE_CER", "0.6")
	out, err := ParseOutput(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, jabr.PrimalInfeasible, out.ProblemStatus)
	assert.Equal(t, jabr.PrimalInfeasibleCertificate, out.SolutionStatus)
	assert.False(t, out.Solution().Optimal())
	assert.Equal(t, []float64{0.707106781186547, 0.6}, out.U)
	assert.Equal(t, []float64{0.9}, out.R)
	assert.Equal(t, []float64{-0.1}, out.I)
}

func TestParseOutputErrors(t *testing.T) {
	good := fmt.Sprintf(report, "PRIMAL_AND_DUAL_FEASIBLE", "OPTIMAL", "0.6")

	tests := []struct {
		name      string
		src       string
		malformed bool
	}{
		{"no problem status", strings.Replace(good, "PROBLEM STATUS", "PROBLEM", 1), true},
		{"no solution status", strings.Replace(good, "SOLUTION STATUS", "SOLUTION", 1), true},
		{"no variables", good[:strings.Index(good, "VARIABLES")], true},
		{"bad activity", fmt.Sprintf(report, "PRIMAL_AND_DUAL_FEASIBLE", "OPTIMAL", "abc"), false},
		{"short row", strings.Replace(good, "3          i0      SB -0.1", "3 i0", 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOutput(strings.NewReader(tt.src))
			require.Error(t, err)
			if tt.malformed {
				assert.ErrorIs(t, err, ErrMalformedOutput)
			} else {
				assert.ErrorContains(t, err, "line 14")
			}
		})
	}
}

func loadModel(t *testing.T) *jabr.Network {
	t.Helper()
	c, err := casefile.ParseFile(filepath.Join("..", "..", "cases", "case5_renumber_tree.m"))
	require.NoError(t, err)
	net, err := jabr.NewNetwork(c)
	require.NoError(t, err)
	return net
}

func TestWriteOPF(t *testing.T) {
	model, err := jabr.BuildModel(loadModel(t), jabr.ModelOptions{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteOPF(&buf, model))
	opf := buf.String()

	assert.Contains(t, opf, "[variables]\nu0 u1 u2 u3 u4 r0 r1 r2 r3 i0\ni1 i2 i3\n[/variables]")
	assert.Contains(t, opf, "[objective minimize 'obj']")
	assert.Contains(t, opf, "[b] u0 = 0.7071067811865475 [/b]")
	assert.Contains(t, opf, "[b] u1 >= 0 [/b]")
	assert.Contains(t, opf, "[b] r0 free [/b]")
	assert.Contains(t, opf, "[cone rquad 'k0'] u0, u2, r0, i0 [/cone]")
	assert.Contains(t, opf, "[cone rquad 'k3'] u3, u4, r3, i3 [/cone]")
	assert.Equal(t, 8, strings.Count(opf, "[con '"))
	assert.Contains(t, opf, "[con 'p1'] ")
	assert.Contains(t, opf, " = -1 [/con]")
}

func TestExpression(t *testing.T) {
	m := &jabr.Model{Layout: jabr.Layout{N: 2, M: 1}}
	c := jabr.Coefficients{Cols: []int{0, 2, 3}, Vals: []float64{-1.5, 2, -0.25}}
	assert.Equal(t, "- 1.5 u0 + 2 r0 - 0.25 i0", expression(m, c))
	assert.Equal(t, "0 u0", expression(m, jabr.Coefficients{}))
}

// fakeMosek writes a shell script standing in for the mosek binary. It checks
// the arguments and copies the prepared report to the solution path.
func fakeMosek(t *testing.T, report string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	dir := t.TempDir()
	fixture := filepath.Join(dir, "fixture.sol")
	require.NoError(t, os.WriteFile(fixture, []byte(report), 0o644))

	script := fmt.Sprintf(`#!/bin/sh
[ "$1" = "-itro" ] || { echo "unexpected $1" >&2; exit 2; }
[ -f "$3" ] || { echo "missing task $3" >&2; exit 2; }
cp %q "$2"
`, fixture)
	bin := filepath.Join(dir, "mosek")
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	return bin
}

func case5Report() string {
	u := []float64{0.70710678, 0.51489306, 0.68559881, 0.53884305, 0.51489306}
	r := []float64{0.97958314, 0.81977994, 0.73816875, 0.73816875}
	i := []float64{0.1, 0.3, -0.1, 0.1}

	var b strings.Builder
	b.WriteString("PROBLEM STATUS      : PRIMAL_AND_DUAL_FEASIBLE\n")
	b.WriteString("SOLUTION STATUS     : OPTIMAL\n")
	b.WriteString("PRIMAL OBJECTIVE    : 4.0396\n\nVARIABLES\n")
	b.WriteString("INDEX      NAME                     AT ACTIVITY\n")
	k := 0
	for _, g := range []struct {
		prefix string
		vals   []float64
	}{{"u", u}, {"r", r}, {"i", i}} {
		for j, v := range g.vals {
			fmt.Fprintf(&b, "%-10d %s%-23d SB %.14e\n", k, g.prefix, j, v)
			k++
		}
	}
	return b.String()
}

func TestSolveWithCommand(t *testing.T) {
	net := loadModel(t)
	work := t.TempDir()
	backend := New(command.Options{Binary: fakeMosek(t, case5Report()), WorkDir: work, KeepFiles: true})

	sol, err := jabr.Solve(context.Background(), backend, net, jabr.ModelOptions{})
	require.NoError(t, err)
	require.True(t, sol.Optimal())

	vm, err := jabr.RecoverMagnitudes(sol.U)
	require.NoError(t, err)
	want := map[int]float64{5: 1, 1: 0.85332805, 2: 0.98467413, 3: 0.87294854, 4: 0.85332805}
	for bus, v := range vm {
		assert.InDelta(t, want[net.I2E[bus]], v, 1e-4, "bus %d", net.I2E[bus])
	}

	tasks, err := filepath.Glob(filepath.Join(work, "jabr-mosek-*", taskFile))
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestSolveCommandFailure(t *testing.T) {
	net := loadModel(t)
	backend := New(command.Options{Binary: fakeMosek(t, "garbage\n"), WorkDir: t.TempDir()})

	_, err := jabr.Solve(context.Background(), backend, net, jabr.ModelOptions{})
	assert.ErrorIs(t, err, ErrMalformedOutput)
}
