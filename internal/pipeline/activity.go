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
	"time"

	"github.com/cinelens/cinelens/internal/dataset"
	"github.com/cinelens/cinelens/internal/logging"
	"github.com/cinelens/cinelens/internal/metrics"
)

// ErrBadThreshold is returned when the activity threshold is below 1.
var ErrBadThreshold = errors.New("activity threshold must be >= 1")

// ActivityFilter drops all ratings from users with fewer than Threshold
// ratings. It runs two passes over the input: the first counts ratings
// per user (one counter per distinct user in memory), the second
// streams rows through, preserving input order.
type ActivityFilter struct {
	// UserColumn overrides the user id column name.
	UserColumn string

	// Threshold is the minimum rating count for a user to be kept.
	Threshold int

	// ProgressEvery logs a progress line every N rows on the second pass.
	ProgressEvery int

	// Tracker persists the final stats when non-nil.
	Tracker Tracker
}

// Run executes the stage.
func (f *ActivityFilter) Run(ctx context.Context, input, output string) (*Stats, error) {
	if f.Threshold < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrBadThreshold, f.Threshold)
	}
	userCol := f.UserColumn
	if userCol == "" {
		userCol = dataset.DefaultUserColumn
	}

	stats := &Stats{Stage: StageFilter, StartTime: time.Now()}
	logger := logging.With().Str("stage", StageFilter).Logger()

	counts, err := countUsers(ctx, input, userCol)
	if err != nil {
		return stats, err
	}

	keep := make(map[string]struct{}, len(counts))
	for user, n := range counts {
		if n >= f.Threshold {
			keep[user] = struct{}{}
		}
	}
	stats.UsersKept = int64(len(keep))

	r, err := dataset.Open(input)
	if err != nil {
		return stats, err
	}
	defer func() { _ = r.Close() }()
	userIdx, err := r.Column(userCol)
	if err != nil {
		return stats, err
	}

	w, err := dataset.Create(output, r.Header())
	if err != nil {
		return stats, err
	}

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
		if f.ProgressEvery > 0 && stats.TotalRows%int64(f.ProgressEvery) == 0 {
			logger.Info().
				Int64("rows", stats.TotalRows).
				Int64("kept", stats.Kept).
				Msg("activity filter progress")
		}

		if _, ok := keep[dataset.Field(record, userIdx)]; !ok {
			stats.Dropped++
			continue
		}
		if err := w.Write(record); err != nil {
			w.Abort()
			return stats, err
		}
		stats.Kept++
	}

	if err := w.Commit(); err != nil {
		return stats, err
	}
	stats.EndTime = time.Now()

	metrics.StageCompleted(StageFilter, stats.TotalRows, stats.Duration())
	saveStats(ctx, f.Tracker, stats)

	logger.Info().
		Int64("total_rows", stats.TotalRows).
		Int64("kept", stats.Kept).
		Int64("users_kept", stats.UsersKept).
		Int("threshold", f.Threshold).
		Dur("duration", stats.Duration()).
		Msg("activity filter complete")

	return stats, nil
}

// countUsers tallies rating rows per user id.
func countUsers(ctx context.Context, input, userCol string) (map[string]int, error) {
	r, err := dataset.Open(input)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	userIdx, err := r.Column(userCol)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return counts, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", input, err)
		}
		counts[dataset.Field(record, userIdx)]++
	}
}
