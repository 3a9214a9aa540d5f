// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package cli

import (
	"github.com/spf13/cobra"

	"github.com/cinelens/cinelens/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline for a dataset",
	Long: `Run chains all pipeline stages for one dataset directory:

  raw/<dataset>/ratings.csv -> dedup -> filter-users -> processed/<dataset>/
  raw/<dataset>/movies.csv  -> onehot                -> processed/<dataset>/

Intermediate files are kept so individual stages can be rerun.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data := cfg.Data
		if cmd.Flags().Changed("dataset") {
			data.Dataset, _ = cmd.Flags().GetString("dataset")
		}

		tracker, closeTracker, err := newTracker()
		if err != nil {
			return err
		}
		defer closeTracker()

		runner := &pipeline.Runner{
			Data:     data,
			Pipeline: cfg.Pipeline,
			Tracker:  tracker,
		}
		stats, err := runner.Run(cmd.Context())
		if err != nil {
			return err
		}
		return printStats(stats...)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("dataset", "", "dataset directory name (e.g. ml-100k)")
}
