package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"jabr"
	"jabr/sparse"
)

func runMatrices(cmd *cobra.Command, args []string) error {
	net, err := loadNetwork(args[0])
	if err != nil {
		return err
	}
	data, _ := cmd.Flags().GetBool("data")
	dense, _ := cmd.Flags().GetBool("dense")

	Areal, Areac := jabr.BuildConstraintMatrix(net.G, net.B, net.Branches)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %d buses, %d branches, columns [U(%d) | R(%d) | I(%d)]\n\n",
		net.Case.Name, net.NumBuses(), net.NumBranches(), net.NumBuses(), net.NumBranches(), net.NumBranches())
	fmt.Fprintf(w, "bus order: %v\n", net.I2E)
	trees, err := net.SpanningTrees()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "spanning trees: %.0f\n\n", trees)

	for _, m := range []struct {
		name   string
		matrix *sparse.Matrix
	}{
		{"active balance", Areal},
		{"reactive balance", Areac},
	} {
		fmt.Fprintf(w, "%s\n", m.name)
		if dense {
			fmt.Fprintf(w, "%.6g\n", mat.Formatted(m.matrix.Dense(), mat.Squeeze()))
		} else {
			m.matrix.Print(w, data, true)
		}
		fmt.Fprintln(w)
	}
	return nil
}
