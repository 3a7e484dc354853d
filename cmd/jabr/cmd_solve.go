package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"jabr"
	"jabr/casefile"
	"jabr/logging"
	"jabr/report"
	"jabr/solver"
)

func loadNetwork(name string) (*jabr.Network, error) {
	c, err := casefile.ParseFile(casefile.Resolve(cfg.CaseDir, name))
	if err != nil {
		return nil, err
	}
	return jabr.NewNetwork(c)
}

// solveCase runs the whole pipeline for one case. Voltages are recovered
// only from optimal solutions.
func solveCase(ctx context.Context, name string) (*report.Report, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("case", name)

	net, err := loadNetwork(name)
	if err != nil {
		return nil, err
	}
	log.Info("case loaded", "buses", net.NumBuses(), "branches", net.NumBranches(), "topology", net.Topology().String())

	backend, err := solver.New(cfg)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.ModelOptions()
	if err != nil {
		return nil, err
	}
	mode, err := cfg.RecoveryMode()
	if err != nil {
		return nil, err
	}

	sol, err := jabr.Solve(logr.NewContext(ctx, log), backend, net, opts)
	if err != nil {
		return nil, err
	}
	if !sol.Optimal() {
		return report.New(net, sol, nil, mode), nil
	}

	v, err := net.Recover(sol.U, sol.R, sol.I, mode)
	if err != nil {
		return nil, err
	}
	log.V(logging.DEBUG).Info("voltages recovered", "mode", mode.String(), "residual", v.Residual, "fillins", v.Fillins)
	return report.New(net, sol, v, mode), nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	r, err := solveCase(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if err := writeReport(cmd.OutOrStdout(), output, r); err != nil {
		return err
	}

	if plot, _ := cmd.Flags().GetString("plot"); plot != "" && len(r.Buses) > 0 {
		if err := report.SaveProfile(plot, r); err != nil {
			return fmt.Errorf("plot: %w", err)
		}
	}

	if r.SolutionStatus != string(jabr.Optimal) {
		return fmt.Errorf("%s: solution status %s (problem status %s)", r.Case, r.SolutionStatus, r.ProblemStatus)
	}
	return nil
}

func writeReport(stdout io.Writer, path string, r *report.Report) error {
	if path == "" {
		return r.Write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
