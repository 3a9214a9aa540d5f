// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package cli

import (
	"github.com/spf13/cobra"

	"github.com/cinelens/cinelens/internal/pipeline"
)

var filterUsersCmd = &cobra.Command{
	Use:   "filter-users",
	Short: "Drop ratings from low-activity users",
	Long: `Filter-users removes every rating from users with fewer than the
threshold number of ratings. Surviving rows keep their input order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")

		threshold := cfg.Pipeline.MinRatings
		if cmd.Flags().Changed("threshold") {
			threshold, _ = cmd.Flags().GetInt("threshold")
		}

		tracker, closeTracker, err := newTracker()
		if err != nil {
			return err
		}
		defer closeTracker()

		stage := &pipeline.ActivityFilter{
			UserColumn:    flagOrConfig(cmd, "user-col", cfg.Pipeline.UserColumn),
			Threshold:     threshold,
			ProgressEvery: cfg.Pipeline.ProgressEvery,
			Tracker:       tracker,
		}
		stats, err := stage.Run(cmd.Context(), input, output)
		if err != nil {
			return err
		}
		return printStats(stats)
	},
}

func init() {
	rootCmd.AddCommand(filterUsersCmd)
	filterUsersCmd.Flags().String("input", "", "input ratings CSV path")
	filterUsersCmd.Flags().String("output", "", "output CSV path")
	filterUsersCmd.Flags().String("user-col", "", "user id column name")
	filterUsersCmd.Flags().Int("threshold", 0, "minimum ratings per user")
	_ = filterUsersCmd.MarkFlagRequired("input")
	_ = filterUsersCmd.MarkFlagRequired("output")
}
