package main

import (
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"jabr/config"
	"jabr/logging"
)

var (
	configFile string
	cfg        *config.Config

	rootCmd = &cobra.Command{
		Use:   "jabr",
		Short: "Solve power flow cases with the Jabr second-order cone relaxation",
		Long: `jabr formulates the power flow of a MATPOWER case as the Jabr
second-order cone relaxation, solves it with an in-process or external
conic solver, and recovers bus voltage magnitudes and angles.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	solveCmd = &cobra.Command{
		Use:   "solve <case>",
		Short: "Solve one case and print the voltage report",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolve,
	}

	matricesCmd = &cobra.Command{
		Use:   "matrices <case>",
		Short: "Print the balance constraint matrices of a case",
		Args:  cobra.ExactArgs(1),
		RunE:  runMatrices,
	}

	parseCmd = &cobra.Command{
		Use:   "parse <solution-file>",
		Short: "Read a MOSEK report (.out/.sol) or Gurobi result (.json) and recover voltages",
		Args:  cobra.ExactArgs(1),
		RunE:  runParse,
	}

	batchCmd = &cobra.Command{
		Use:   "batch <case>...",
		Short: "Solve several cases concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBatch,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "YAML config file")
	flags.String("case-dir", "cases", "directory searched for case names")
	flags.String("backend", "slsqp", "solver backend: slsqp, mosek or gurobi")
	flags.String("objective", "loss", "objective: loss or jabr")
	flags.String("topology", "auto", "voltage recovery: auto, tree or mesh")
	flags.Bool("enforce-q-limits", false, "bound the reactive injection of PV buses")
	flags.String("log-level", "info", "log level: error, warn, info, verbose, debug or trace")

	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().StringP("output", "o", "", "write the YAML report to a file instead of stdout")
	solveCmd.Flags().String("plot", "", "save a voltage profile chart (.png, .svg or .pdf)")

	rootCmd.AddCommand(matricesCmd)
	matricesCmd.Flags().Bool("data", false, "print values instead of the sparsity structure")
	matricesCmd.Flags().Bool("dense", false, "print the matrices as dense grids")

	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().String("case", "", "case the solution belongs to; enables angle recovery")

	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().Int("jobs", 4, "number of cases solved at once")
}

// setup merges defaults, config file, environment and flags, then puts the
// logger into the command context.
func setup(cmd *cobra.Command, _ []string) error {
	v := config.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return err
	}

	var err error
	if cfg, err = config.Load(v, configFile); err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	cmd.SetContext(logr.NewContext(cmd.Context(), log))

	log.V(logging.DEBUG).Info("configuration loaded",
		"backend", cfg.Backend, "caseDir", cfg.CaseDir, "objective", cfg.Objective, "topology", cfg.Topology)
	return nil
}
