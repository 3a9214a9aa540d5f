// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package cli

import (
	"github.com/spf13/cobra"

	"github.com/cinelens/cinelens/internal/pipeline"
)

var onehotCmd = &cobra.Command{
	Use:   "onehot",
	Short: "One-hot encode the movies genre column",
	Long: `Onehot replaces the pipe-separated genres column of a movies CSV
with one 0/1 column per genre in the MovieLens vocabulary. All other
columns pass through unchanged.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		sortGenres, _ := cmd.Flags().GetBool("sort-genres")

		tracker, closeTracker, err := newTracker()
		if err != nil {
			return err
		}
		defer closeTracker()

		stage := &pipeline.OneHot{
			GenresColumn:  cfg.Pipeline.GenresColumn,
			SortGenres:    sortGenres || cfg.Pipeline.SortGenres,
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
	rootCmd.AddCommand(onehotCmd)
	onehotCmd.Flags().String("input", "", "input movies CSV path")
	onehotCmd.Flags().String("output", "", "output CSV path")
	onehotCmd.Flags().Bool("sort-genres", false, "order genre columns alphabetically")
	_ = onehotCmd.MarkFlagRequired("input")
	_ = onehotCmd.MarkFlagRequired("output")
}
