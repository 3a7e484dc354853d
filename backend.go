package jabr

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"jabr/logging"
)

type ProblemStatus string

const (
	PrimalAndDualFeasible   ProblemStatus = "PRIMAL_AND_DUAL_FEASIBLE"
	PrimalFeasible          ProblemStatus = "PRIMAL_FEASIBLE"
	DualFeasible            ProblemStatus = "DUAL_FEASIBLE"
	PrimalInfeasible        ProblemStatus = "PRIMAL_INFEASIBLE"
	DualInfeasible          ProblemStatus = "DUAL_INFEASIBLE"
	PrimalAndDualInfeasible ProblemStatus = "PRIMAL_AND_DUAL_INFEASIBLE"
	UnknownProblemStatus    ProblemStatus = "UNKNOWN"
)

type SolutionStatus string

const (
	Optimal                     SolutionStatus = "OPTIMAL"
	PrimalInfeasibleCertificate SolutionStatus = "PRIMAL_INFEASIBLE_CER"
	DualInfeasibleCertificate   SolutionStatus = "DUAL_INFEASIBLE_CER"
	UnknownSolutionStatus       SolutionStatus = "UNKNOWN"
)

// Solution is what a backend reports for one model. A solve that finishes
// without an optimum is still a Solution; only failures to run the solver or
// to read its output are errors.
type Solution struct {
	Backend        string
	ProblemStatus  ProblemStatus
	SolutionStatus SolutionStatus
	Objective      float64

	U []float64
	R []float64
	I []float64
}

func (s *Solution) Optimal() bool {
	return s.SolutionStatus == Optimal
}

// Task is a model already translated into a backend's native form.
type Task interface {
	Model() *Model
}

type Backend interface {
	Name() string
	Assemble(m *Model) (Task, error)
	Solve(ctx context.Context, task Task) (*Solution, error)
}

// Solve packages net, hands it to backend and checks the returned vectors
// against the network dimensions.
func Solve(ctx context.Context, backend Backend, net *Network, opts ModelOptions) (*Solution, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("backend", backend.Name(), "case", net.Case.Name)

	model, err := BuildModel(net, opts)
	if err != nil {
		return nil, err
	}
	log.V(logging.DEBUG).Info("model built",
		"variables", model.Len(), "rows", len(model.Rows), "cones", len(model.Cones),
		"objective", opts.Objective.String())

	task, err := backend.Assemble(model)
	if err != nil {
		return nil, fmt.Errorf("%s: assemble: %w", backend.Name(), err)
	}

	sol, err := backend.Solve(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("%s: solve: %w", backend.Name(), err)
	}
	if sol.Backend == "" {
		sol.Backend = backend.Name()
	}

	// Backends may report no point at all for infeasible problems.
	empty := len(sol.U)+len(sol.R)+len(sol.I) == 0 && !sol.Optimal()
	if !empty && (len(sol.U) != model.N || len(sol.R) != model.M || len(sol.I) != model.M) {
		return nil, fmt.Errorf("%w: %s returned U=%d R=%d I=%d, want U=%d R=I=%d",
			ErrDimension, backend.Name(), len(sol.U), len(sol.R), len(sol.I), model.N, model.M)
	}

	log.Info("solved",
		"problemStatus", sol.ProblemStatus, "solutionStatus", sol.SolutionStatus,
		"objective", sol.Objective)
	if !sol.Optimal() {
		log.Info("solution is not optimal", "solutionStatus", sol.SolutionStatus)
	}

	return sol, nil
}
