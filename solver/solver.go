// Package solver selects a backend by name.
package solver

import (
	"errors"
	"fmt"
	"slices"

	"jabr"
	"jabr/config"
	"jabr/solver/command"
	"jabr/solver/gurobi"
	"jabr/solver/mosek"
	"jabr/solver/slsqp"
)

var ErrUnknownBackend = errors.New("solver: unknown backend")

// Names lists the available backends.
func Names() []string {
	return []string{slsqp.Name, mosek.Name, gurobi.Name}
}

// New builds the backend named by cfg.Backend.
func New(cfg *config.Config) (jabr.Backend, error) {
	switch cfg.Backend {
	case slsqp.Name:
		return slsqp.New(slsqp.Options{
			Accuracy:      cfg.SLSQP.Accuracy,
			MaxIterations: cfg.SLSQP.MaxIterations,
		}), nil
	case mosek.Name:
		return mosek.New(commandOptions(cfg.Mosek)), nil
	case gurobi.Name:
		return gurobi.New(commandOptions(cfg.Gurobi)), nil
	}
	return nil, fmt.Errorf("%w: %q (want one of %v)", ErrUnknownBackend, cfg.Backend, Names())
}

// Valid reports whether name is a known backend.
func Valid(name string) bool {
	return slices.Contains(Names(), name)
}

func commandOptions(c config.Command) command.Options {
	return command.Options{
		Binary:    c.Binary,
		WorkDir:   c.WorkDir,
		Timeout:   c.Timeout,
		KeepFiles: c.KeepFiles,
	}
}
