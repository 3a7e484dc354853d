// Package mosek solves the relaxation with the MOSEK command line tool.
// The model is written as an OPF task file and the interior-point solution
// report is read back.
package mosek

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
	Name = "mosek"

	taskFile     = "task.opf"
	solutionFile = "task.sol"
)

type Backend struct {
	opts command.Options
}

func New(opts command.Options) *Backend {
	if opts.Binary == "" {
		opts.Binary = "mosek"
	}
	return &Backend{opts: opts}
}

func (b *Backend) Name() string {
	return Name
}

type task struct {
	model *jabr.Model
	opf   []byte
}

func (t *task) Model() *jabr.Model {
	return t.model
}

func (b *Backend) Assemble(m *jabr.Model) (jabr.Task, error) {
	var buf bytes.Buffer
	if err := WriteOPF(&buf, m); err != nil {
		return nil, err
	}
	return &task{model: m, opf: buf.Bytes()}, nil
}

func (b *Backend) Solve(ctx context.Context, jt jabr.Task) (*jabr.Solution, error) {
	t, ok := jt.(*task)
	if !ok {
		return nil, fmt.Errorf("mosek: unexpected task type %T", jt)
	}

	ws, err := command.NewWorkspace(b.opts, "jabr-mosek")
	if err != nil {
		return nil, err
	}
	defer ws.Close()
	logr.FromContextOrDiscard(ctx).V(logging.VERBOSE).Info("mosek workspace", "dir", ws.Dir, "kept", b.opts.KeepFiles)

	if err := os.WriteFile(ws.Path(taskFile), t.opf, 0o644); err != nil {
		return nil, err
	}
	if _, err := command.Run(ctx, b.opts, ws.Dir, "-itro", solutionFile, taskFile); err != nil {
		return nil, err
	}

	out, err := ParseOutputFile(ws.Path(solutionFile))
	if err != nil {
		return nil, err
	}
	return out.Solution(), nil
}
