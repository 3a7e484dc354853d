// Package command runs external solver binaries inside a scratch directory.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"jabr/logging"
)

var (
	ErrTimeout = errors.New("solver command timed out")
	ErrFailed  = errors.New("solver command failed")
)

const defaultTimeout = 5 * time.Minute

// Options describe how to run one solver binary.
type Options struct {
	Binary  string
	WorkDir string // parent of the scratch directories, os.TempDir() when empty
	Timeout time.Duration
	// KeepFiles leaves the scratch directory in place for inspection.
	KeepFiles bool
}

// Workspace is a scratch directory holding the files of one solve.
type Workspace struct {
	Dir  string
	keep bool
}

func NewWorkspace(opts Options, prefix string) (*Workspace, error) {
	if opts.WorkDir != "" {
		if err := os.MkdirAll(opts.WorkDir, 0o755); err != nil {
			return nil, err
		}
	}
	dir, err := os.MkdirTemp(opts.WorkDir, prefix+"-")
	if err != nil {
		return nil, err
	}
	return &Workspace{Dir: dir, keep: opts.KeepFiles}, nil
}

func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Close removes the directory unless the files are kept.
func (w *Workspace) Close() error {
	if w.keep {
		return nil
	}
	return os.RemoveAll(w.Dir)
}

// Run executes the binary with args in dir and returns its standard output.
func Run(ctx context.Context, opts Options, dir string, args ...string) ([]byte, error) {
	log := logr.FromContextOrDiscard(ctx)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, opts.Binary, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.V(logging.DEBUG).Info("running solver", "binary", opts.Binary, "args", args, "dir", dir)
	start := time.Now()
	err := cmd.Run()
	log.V(logging.DEBUG).Info("solver exited", "binary", opts.Binary, "elapsed", time.Since(start))

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if cmdCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, opts.Binary, timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v: %s", ErrFailed, opts.Binary, err, tail(stderr.String(), stdout.String()))
	}

	return stdout.Bytes(), nil
}

// tail returns the last lines of the first non-empty stream.
func tail(streams ...string) string {
	const keep = 10
	for _, s := range streams {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		lines := strings.Split(s, "\n")
		if len(lines) > keep {
			lines = lines[len(lines)-keep:]
		}
		return strings.Join(lines, "\n")
	}
	return "no output"
}
