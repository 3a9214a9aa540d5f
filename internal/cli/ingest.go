// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package cli

import (
	"github.com/spf13/cobra"

	"github.com/cinelens/cinelens/internal/logging"
	"github.com/cinelens/cinelens/internal/pipeline"
	"github.com/cinelens/cinelens/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load processed dataset files into the store",
	Long: `Ingest bulk-loads the processed ratings and one-hot movies files of
a dataset into the DuckDB store, replacing previous table contents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data := cfg.Data
		if cmd.Flags().Changed("dataset") {
			data.Dataset, _ = cmd.Flags().GetString("dataset")
		}

		db, err := store.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logging.Err(cerr).Msg("closing store")
			}
		}()

		runner := &pipeline.Runner{Data: data, Pipeline: cfg.Pipeline}

		ratings, err := db.IngestRatings(cmd.Context(),
			runner.ProcessedPath(pipeline.ActiveUsersFile),
			store.RatingColumns{
				User:      cfg.Pipeline.UserColumn,
				Item:      cfg.Pipeline.ItemColumn,
				Rating:    cfg.Pipeline.RatingColumn,
				Timestamp: cfg.Pipeline.TimestampColumn,
			})
		if err != nil {
			return err
		}

		movies, err := db.IngestMovies(cmd.Context(),
			runner.RawPath(pipeline.MoviesFile),
			store.MovieColumns{Genres: cfg.Pipeline.GenresColumn})
		if err != nil {
			return err
		}

		logging.Info().
			Str("dataset", data.Dataset).
			Int64("ratings", ratings).
			Int64("movies", movies).
			Msg("ingest complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().String("dataset", "", "dataset directory name (e.g. ml-100k)")
}
