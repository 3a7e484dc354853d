package main

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"jabr/report"
)

// runBatch solves every case on its own network; a failing case does not
// stop the others. Reports are written in argument order.
func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logr.FromContextOrDiscard(ctx)

	reports := make([]*report.Report, len(args))
	errs := make([]error, len(args))

	var g errgroup.Group
	g.SetLimit(cfg.Jobs)
	for k, name := range args {
		g.Go(func() error {
			r, err := solveCase(ctx, name)
			if err != nil {
				log.Error(err, "case failed", "case", name)
				errs[k] = fmt.Errorf("%s: %w", name, err)
				return nil
			}
			reports[k] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, r := range reports {
		if r == nil {
			continue
		}
		fmt.Fprintln(w, "---")
		if err := r.Write(w); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}
