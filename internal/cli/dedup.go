// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package cli

import (
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/cinelens/cinelens/internal/pipeline"
)

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Remove duplicate (user, movie) rating pairs",
	Long: `Dedup reads a ratings CSV and writes a copy with at most one row
per (user, movie) pair, keeping the row with the newest timestamp.
On a timestamp tie the row appearing later in the file wins.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")
		keepOrder, _ := cmd.Flags().GetBool("keep-order")

		columns := pipeline.Columns{
			User:      flagOrConfig(cmd, "user-col", cfg.Pipeline.UserColumn),
			Item:      flagOrConfig(cmd, "item-col", cfg.Pipeline.ItemColumn),
			Rating:    flagOrConfig(cmd, "rating-col", cfg.Pipeline.RatingColumn),
			Timestamp: flagOrConfig(cmd, "timestamp-col", cfg.Pipeline.TimestampColumn),
		}

		tracker, closeTracker, err := newTracker()
		if err != nil {
			return err
		}
		defer closeTracker()

		stage := &pipeline.Dedup{
			Columns:       columns,
			KeepOrder:     keepOrder || cfg.Pipeline.KeepOrder,
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
	rootCmd.AddCommand(dedupCmd)
	dedupCmd.Flags().String("input", "", "input ratings CSV path")
	dedupCmd.Flags().String("output", "", "output CSV path")
	dedupCmd.Flags().String("user-col", "", "user id column name")
	dedupCmd.Flags().String("item-col", "", "movie id column name")
	dedupCmd.Flags().String("rating-col", "", "rating column name")
	dedupCmd.Flags().String("timestamp-col", "", "timestamp column name")
	dedupCmd.Flags().Bool("keep-order", false, "sort output by kept timestamp for reproducible files")
	_ = dedupCmd.MarkFlagRequired("input")
	_ = dedupCmd.MarkFlagRequired("output")
}

// flagOrConfig prefers an explicitly set flag over the config value.
func flagOrConfig(cmd *cobra.Command, name, fallback string) string {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return fallback
}

// printStats writes a stage summary as JSON to stdout.
func printStats(stats ...*pipeline.Stats) error {
	summaries := make([]*pipeline.Summary, 0, len(stats))
	for _, s := range stats {
		summaries = append(summaries, s.ToSummary(false))
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if len(summaries) == 1 {
		return enc.Encode(summaries[0])
	}
	return enc.Encode(summaries)
}
