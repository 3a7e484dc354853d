package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"jabr"
	"jabr/report"
	"jabr/solver/gurobi"
	"jabr/solver/mosek"
)

func runParse(cmd *cobra.Command, args []string) error {
	caseName, _ := cmd.Flags().GetString("case")
	w := cmd.OutOrStdout()

	var net *jabr.Network
	if caseName != "" {
		var err error
		if net, err = loadNetwork(caseName); err != nil {
			return err
		}
	}

	var sol *jabr.Solution
	switch filepath.Ext(args[0]) {
	case ".json":
		if net == nil {
			return fmt.Errorf("--case is required to map Gurobi variables")
		}
		res, err := gurobi.ParseSolutionFile(args[0])
		if err != nil {
			return err
		}
		model, err := jabr.BuildModel(net, jabr.ModelOptions{})
		if err != nil {
			return err
		}
		if sol, err = res.Solution(model); err != nil {
			return err
		}
	default:
		out, err := mosek.ParseOutputFile(args[0])
		if err != nil {
			return err
		}
		sol = out.Solution()
	}

	if net == nil {
		fmt.Fprintf(w, "problem status:  %s\nsolution status: %s\n", sol.ProblemStatus, sol.SolutionStatus)
		vm, err := jabr.RecoverMagnitudes(sol.U)
		if err != nil {
			return err
		}
		for bus, v := range vm {
			fmt.Fprintf(w, "%4d %10.6f\n", bus, v)
		}
		return nil
	}

	mode, err := cfg.RecoveryMode()
	if err != nil {
		return err
	}
	var v *jabr.Voltages
	if len(sol.U) > 0 {
		if v, err = net.Recover(sol.U, sol.R, sol.I, mode); err != nil {
			return err
		}
	}
	return report.New(net, sol, v, mode).Write(w)
}
