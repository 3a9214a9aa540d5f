// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package pipeline

import (
	"context"
	"path/filepath"

	"github.com/cinelens/cinelens/internal/config"
	"github.com/cinelens/cinelens/internal/logging"
)

// Standard file names within a dataset directory.
const (
	RatingsFile     = "ratings.csv"
	MoviesFile      = "movies.csv"
	DedupFile       = "ratings_dedup.csv"
	ActiveUsersFile = "ratings_active_users.csv"
	OneHotFile      = "movies_onehot.csv"
)

// Runner chains the full pipeline for one dataset:
//
//	raw/ratings.csv -> dedup -> filter-users -> processed
//	raw/movies.csv  -> onehot                -> processed
type Runner struct {
	Data     config.DataConfig
	Pipeline config.PipelineConfig
	Tracker  Tracker
}

// RawPath returns the path of a file in the raw dataset directory.
func (r *Runner) RawPath(name string) string {
	return filepath.Join(r.Data.RawDir, r.Data.Dataset, name)
}

// ProcessedPath returns the path of a file in the processed dataset
// directory.
func (r *Runner) ProcessedPath(name string) string {
	return filepath.Join(r.Data.ProcessedDir, r.Data.Dataset, name)
}

// Run executes all stages in order and returns their stats.
// The intermediate dedup output is kept on disk so individual stages
// can be rerun and inspected.
func (r *Runner) Run(ctx context.Context) ([]*Stats, error) {
	logging.Info().
		Str("dataset", r.Data.Dataset).
		Str("raw_dir", r.Data.RawDir).
		Str("processed_dir", r.Data.ProcessedDir).
		Msg("pipeline run starting")

	columns := Columns{
		User:      r.Pipeline.UserColumn,
		Item:      r.Pipeline.ItemColumn,
		Rating:    r.Pipeline.RatingColumn,
		Timestamp: r.Pipeline.TimestampColumn,
	}

	dedup := &Dedup{
		Columns:       columns,
		KeepOrder:     r.Pipeline.KeepOrder,
		ProgressEvery: r.Pipeline.ProgressEvery,
		Tracker:       r.Tracker,
	}
	dedupStats, err := dedup.Run(ctx, r.RawPath(RatingsFile), r.ProcessedPath(DedupFile))
	if err != nil {
		return nil, err
	}

	filter := &ActivityFilter{
		UserColumn:    r.Pipeline.UserColumn,
		Threshold:     r.Pipeline.MinRatings,
		ProgressEvery: r.Pipeline.ProgressEvery,
		Tracker:       r.Tracker,
	}
	filterStats, err := filter.Run(ctx, r.ProcessedPath(DedupFile), r.ProcessedPath(ActiveUsersFile))
	if err != nil {
		return []*Stats{dedupStats}, err
	}

	onehot := &OneHot{
		GenresColumn:  r.Pipeline.GenresColumn,
		SortGenres:    r.Pipeline.SortGenres,
		ProgressEvery: r.Pipeline.ProgressEvery,
		Tracker:       r.Tracker,
	}
	onehotStats, err := onehot.Run(ctx, r.RawPath(MoviesFile), r.ProcessedPath(OneHotFile))
	if err != nil {
		return []*Stats{dedupStats, filterStats}, err
	}

	logging.Info().Str("dataset", r.Data.Dataset).Msg("pipeline run complete")
	return []*Stats{dedupStats, filterStats, onehotStats}, nil
}
