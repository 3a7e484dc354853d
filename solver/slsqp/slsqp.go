// Package slsqp solves the relaxation in process with sequential least
// squares programming. Each rotated cone becomes the smooth inequality
// 2 U_f U_t - R^2 - I^2 >= 0; fixed voltage squares are substituted as
// constants so only free variables reach the optimizer.
package slsqp

import (
	"context"
	"fmt"
	"math"

	"github.com/curioloop/optimizer/slsqp"
	"github.com/go-logr/logr"

	"jabr"
	"jabr/logging"
)

const Name = "slsqp"

// Options tune the optimizer. Zero values select the defaults.
type Options struct {
	Accuracy      float64
	MaxIterations int
	// Feasibility is the largest row or cone violation still reported as optimal.
	Feasibility float64
}

const (
	defaultAccuracy      = 1e-10
	defaultMaxIterations = 500
	defaultFeasibility   = 1e-6
)

type Backend struct {
	opts Options
}

func New(opts Options) *Backend {
	if opts.Accuracy <= 0 {
		opts.Accuracy = defaultAccuracy
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultMaxIterations
	}
	if opts.Feasibility <= 0 {
		opts.Feasibility = defaultFeasibility
	}
	return &Backend{opts: opts}
}

func (b *Backend) Name() string {
	return Name
}

// task holds the reduced problem. slot maps a model variable to its index in
// the optimizer vector, or -1 when the variable is fixed to value[k].
type task struct {
	model *jabr.Model
	slot  []int
	free  []int
	value []float64

	problem slsqp.Problem
}

func (t *task) Model() *jabr.Model {
	return t.model
}

// linear is a model row restricted to the free variables plus a constant.
type linear struct {
	cols     []int
	vals     []float64
	constant float64
}

func (l linear) eval(z, g []float64) float64 {
	sum := l.constant
	for k, col := range l.cols {
		sum += l.vals[k] * z[col]
	}
	if g != nil {
		clear(g)
		for k, col := range l.cols {
			g[col] += l.vals[k]
		}
	}
	return sum
}

func (t *task) reduce(c jabr.Coefficients) linear {
	var l linear
	for k, col := range c.Cols {
		if s := t.slot[col]; s >= 0 {
			l.cols = append(l.cols, s)
			l.vals = append(l.vals, c.Vals[k])
		} else {
			l.constant += c.Vals[k] * t.value[col]
		}
	}
	return l
}

func (t *task) at(k int, z []float64) float64 {
	if s := t.slot[k]; s >= 0 {
		return z[s]
	}
	return t.value[k]
}

func (t *task) cone(c jabr.Cone) slsqp.Evaluation {
	m := t.model
	uf, ut := m.U(c.From), m.U(c.To)
	r, i := m.R(c.Branch), m.I(c.Branch)

	return func(z, g []float64) float64 {
		vf, vt := t.at(uf, z), t.at(ut, z)
		vr, vi := t.at(r, z), t.at(i, z)
		if g != nil {
			clear(g)
			if s := t.slot[uf]; s >= 0 {
				g[s] += 2 * vt
			}
			if s := t.slot[ut]; s >= 0 {
				g[s] += 2 * vf
			}
			g[t.slot[r]] = -2 * vr
			g[t.slot[i]] = -2 * vi
		}
		return 2*vf*vt - vr*vr - vi*vi
	}
}

// Assemble substitutes fixed variables and turns rows and cones into
// optimizer constraints. Range rows become one inequality per finite side.
func (b *Backend) Assemble(m *jabr.Model) (jabr.Task, error) {
	t := &task{
		model: m,
		slot:  make([]int, m.Len()),
		value: make([]float64, m.Len()),
	}

	var bounds []slsqp.Bound
	for k, bnd := range m.Bounds {
		if bnd.Fixed() {
			t.slot[k] = -1
			t.value[k] = bnd.Lower
			continue
		}
		t.slot[k] = len(t.free)
		t.free = append(t.free, k)
		bounds = append(bounds, slsqp.Bound{Lower: bnd.Lower, Upper: bnd.Upper})
	}
	if len(t.free) == 0 {
		return nil, fmt.Errorf("model %s has no free variables", m.Name)
	}

	var eq, neq []slsqp.Evaluation
	for _, row := range m.Rows {
		l := t.reduce(row.Coefficients)
		lower, upper := row.Lower, row.Upper
		switch {
		case row.Equality():
			eq = append(eq, func(z, g []float64) float64 {
				return l.eval(z, g) - lower
			})
		default:
			if !math.IsInf(lower, -1) {
				neq = append(neq, func(z, g []float64) float64 {
					return l.eval(z, g) - lower
				})
			}
			if !math.IsInf(upper, 1) {
				neq = append(neq, func(z, g []float64) float64 {
					v := l.eval(z, g)
					for k := range g {
						g[k] = -g[k]
					}
					return upper - v
				})
			}
		}
	}
	if len(eq) > len(t.free) {
		return nil, fmt.Errorf("model %s has %d equality rows for %d free variables",
			m.Name, len(eq), len(t.free))
	}

	for _, c := range m.Cones {
		neq = append(neq, t.cone(c))
	}

	cost := t.reduce(m.Cost)
	t.problem = slsqp.Problem{
		N:       len(t.free),
		Object:  cost.eval,
		EqCons:  eq,
		NeqCons: neq,
		Bounds:  bounds,
		Stop: slsqp.Termination{
			Accuracy:       b.opts.Accuracy,
			MaxIterations:  b.opts.MaxIterations,
			FEvalTolerance: math.NaN(),
			FDiffTolerance: math.NaN(),
			XDiffTolerance: math.NaN(),
		},
	}

	return t, nil
}

// Solve runs the optimizer from the model's flat start. The optimizer itself
// is not interruptible; the context is checked before it starts.
func (b *Backend) Solve(ctx context.Context, jt jabr.Task) (*jabr.Solution, error) {
	t, ok := jt.(*task)
	if !ok {
		return nil, fmt.Errorf("slsqp: unexpected task type %T", jt)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := logr.FromContextOrDiscard(ctx)

	optimizer, err := t.problem.New()
	if err != nil {
		return nil, fmt.Errorf("slsqp: %w", err)
	}

	z := make([]float64, len(t.free))
	for s, k := range t.free {
		z[s] = t.model.Start[k]
	}

	log.V(logging.DEBUG).Info("starting slsqp",
		"free", len(t.free), "equalities", len(t.problem.EqCons), "inequalities", len(t.problem.NeqCons))
	res := optimizer.Fit(z, optimizer.Init())
	if res.Status == slsqp.BadArgument {
		return nil, fmt.Errorf("slsqp: evaluation failed after %d iterations", res.NumIter)
	}

	x := make([]float64, t.model.Len())
	for k := range x {
		x[k] = t.at(k, res.X)
	}
	rows, cones := t.model.Violation(x)
	log.V(logging.DEBUG).Info("slsqp finished",
		"status", int(res.Status), "iterations", res.NumIter, "rowViolation", rows, "coneViolation", cones)

	sol := &jabr.Solution{
		Backend:   Name,
		Objective: t.model.Value(x),
	}
	sol.U, sol.R, sol.I = t.model.Split(x)
	sol.ProblemStatus, sol.SolutionStatus = b.status(res, math.Max(rows, cones))

	return sol, nil
}

func (b *Backend) status(res *slsqp.Result, violation float64) (jabr.ProblemStatus, jabr.SolutionStatus) {
	switch {
	case res.OK && violation <= b.opts.Feasibility:
		return jabr.PrimalAndDualFeasible, jabr.Optimal
	case res.Status == slsqp.ConsIncompatible:
		return jabr.PrimalInfeasible, jabr.UnknownSolutionStatus
	case violation <= b.opts.Feasibility:
		return jabr.PrimalFeasible, jabr.UnknownSolutionStatus
	}
	return jabr.UnknownProblemStatus, jabr.UnknownSolutionStatus
}
