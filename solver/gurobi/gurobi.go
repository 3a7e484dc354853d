// Package gurobi solves the relaxation with the gurobi_cl command line tool.
package gurobi

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/go-logr/logr"

	"jabr"
	"jabr/logging"
	"jabr/solver/command"
)

const (
	Name = "gurobi"

	modelFile  = "model.lp"
	resultFile = "result.json"
)

type Backend struct {
	opts command.Options
}

func New(opts command.Options) *Backend {
	if opts.Binary == "" {
		opts.Binary = "gurobi_cl"
	}
	return &Backend{opts: opts}
}

func (b *Backend) Name() string {
	return Name
}

type task struct {
	model *jabr.Model
	lp    []byte
}

func (t *task) Model() *jabr.Model {
	return t.model
}

func (b *Backend) Assemble(m *jabr.Model) (jabr.Task, error) {
	var buf bytes.Buffer
	if err := WriteLP(&buf, m); err != nil {
		return nil, err
	}
	return &task{model: m, lp: buf.Bytes()}, nil
}

func (b *Backend) Solve(ctx context.Context, jt jabr.Task) (*jabr.Solution, error) {
	t, ok := jt.(*task)
	if !ok {
		return nil, fmt.Errorf("gurobi: unexpected task type %T", jt)
	}
	log := logr.FromContextOrDiscard(ctx)

	ws, err := command.NewWorkspace(b.opts, "jabr-gurobi")
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	if err := os.WriteFile(ws.Path(modelFile), t.lp, 0o644); err != nil {
		return nil, err
	}
	stdout, err := command.Run(ctx, b.opts, ws.Dir, "ResultFile="+resultFile, modelFile)
	if err != nil {
		return nil, err
	}
	log.V(logging.TRACE).Info("gurobi output", "stdout", string(stdout))

	res, err := ParseSolutionFile(ws.Path(resultFile))
	if err != nil {
		return nil, err
	}
	log.V(logging.DEBUG).Info("gurobi result",
		"status", res.SolutionInfo.Status, "runtime", res.SolutionInfo.Runtime, "solutions", res.SolutionInfo.SolCount)

	return res.Solution(t.model)
}
