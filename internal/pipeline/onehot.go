// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cinelens/cinelens/internal/dataset"
	"github.com/cinelens/cinelens/internal/logging"
	"github.com/cinelens/cinelens/internal/metrics"
)

// OneHot replaces the pipe-separated genres column of movies.csv with
// one integer flag column per genre in the MovieLens vocabulary. All
// other columns pass through unchanged.
type OneHot struct {
	// GenresColumn overrides the genre column name.
	GenresColumn string

	// SortGenres orders the flag columns alphabetically instead of
	// the canonical vocabulary order.
	SortGenres bool

	// ProgressEvery logs a progress line every N rows.
	ProgressEvery int

	// Tracker persists the final stats when non-nil.
	Tracker Tracker
}

// Run executes the stage.
func (o *OneHot) Run(ctx context.Context, input, output string) (*Stats, error) {
	genresCol := o.GenresColumn
	if genresCol == "" {
		genresCol = dataset.DefaultGenresColumn
	}

	stats := &Stats{Stage: StageOneHot, StartTime: time.Now()}
	logger := logging.With().Str("stage", StageOneHot).Logger()

	r, err := dataset.Open(input)
	if err != nil {
		return stats, err
	}
	defer func() { _ = r.Close() }()

	genresIdx, err := r.Column(genresCol)
	if err != nil {
		return stats, err
	}

	// Passthrough columns keep their input order; genre flags follow.
	var passthrough []int
	header := make([]string, 0, len(r.Header())+len(dataset.GenreList))
	for i, name := range r.Header() {
		if i == genresIdx {
			continue
		}
		passthrough = append(passthrough, i)
		header = append(header, name)
	}
	genres := dataset.Genres(o.SortGenres)
	header = append(header, genres...)

	w, err := dataset.Create(output, header)
	if err != nil {
		return stats, err
	}

	outRecord := make([]string, len(header))
	for {
		if err := ctx.Err(); err != nil {
			w.Abort()
			return stats, err
		}

		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			w.Abort()
			return stats, fmt.Errorf("read %s: %w", input, err)
		}

		stats.TotalRows++
		if o.ProgressEvery > 0 && stats.TotalRows%int64(o.ProgressEvery) == 0 {
			logger.Info().Int64("rows", stats.TotalRows).Msg("one-hot progress")
		}

		for i, idx := range passthrough {
			outRecord[i] = dataset.Field(record, idx)
		}

		present := presentGenres(dataset.Field(record, genresIdx))
		for i, g := range genres {
			flag := "0"
			if _, ok := present[g]; ok {
				flag = "1"
			}
			outRecord[len(passthrough)+i] = flag
		}

		if err := w.Write(outRecord); err != nil {
			w.Abort()
			return stats, err
		}
		stats.Kept++
	}

	if err := w.Commit(); err != nil {
		return stats, err
	}
	stats.EndTime = time.Now()

	metrics.StageCompleted(StageOneHot, stats.TotalRows, stats.Duration())
	saveStats(ctx, o.Tracker, stats)

	logger.Info().
		Int64("movies", stats.TotalRows).
		Int("genres", len(genres)).
		Dur("duration", stats.Duration()).
		Msg("one-hot encoding complete")

	return stats, nil
}

// presentGenres parses the raw genre field into a membership set.
// If the dataset's "(no genres listed)" placeholder appears in any
// casing, it becomes the only genre present so exactly one flag is set.
func presentGenres(raw string) map[string]struct{} {
	parsed := dataset.ParseGenres(raw)
	present := make(map[string]struct{}, len(parsed))
	for _, g := range parsed {
		if strings.EqualFold(g, dataset.NoGenresListed) {
			return map[string]struct{}{dataset.NoGenresListed: {}}
		}
		present[g] = struct{}{}
	}
	return present
}
