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
	"sort"
	"time"

	"github.com/cinelens/cinelens/internal/dataset"
	"github.com/cinelens/cinelens/internal/logging"
	"github.com/cinelens/cinelens/internal/metrics"
)

// Columns names the rating CSV columns a stage needs.
type Columns struct {
	User      string
	Item      string
	Rating    string
	Timestamp string
}

// DefaultColumns returns the standard MovieLens column names.
func DefaultColumns() Columns {
	return Columns{
		User:      dataset.DefaultUserColumn,
		Item:      dataset.DefaultItemColumn,
		Rating:    dataset.DefaultRatingColumn,
		Timestamp: dataset.DefaultTimestampColumn,
	}
}

// applyDefaults fills empty column names.
func (c *Columns) applyDefaults() {
	d := DefaultColumns()
	if c.User == "" {
		c.User = d.User
	}
	if c.Item == "" {
		c.Item = d.Item
	}
	if c.Rating == "" {
		c.Rating = d.Rating
	}
	if c.Timestamp == "" {
		c.Timestamp = d.Timestamp
	}
}

// Dedup removes duplicate (user, movie) rating pairs, keeping the row
// with the newest timestamp. On a timestamp tie the later occurrence
// in the file wins.
//
// The whole keyed set is held in memory, one record per unique pair.
// For inputs that exceed memory an external sort would be needed; the
// MovieLens datasets fit comfortably.
type Dedup struct {
	// Columns overrides the rating CSV column names.
	Columns Columns

	// KeepOrder writes rows ordered by their kept timestamp ascending
	// for reproducible output. The default preserves the order in
	// which each pair first appeared.
	KeepOrder bool

	// ProgressEvery logs a progress line every N input rows.
	ProgressEvery int

	// Tracker persists the final stats when non-nil.
	Tracker Tracker
}

// keptRow is the current best record for a (user, movie) pair.
type keptRow struct {
	ts     int64
	seq    int64 // input position of the kept occurrence
	record []string
}

// Run executes the stage, reading input and atomically writing output.
func (d *Dedup) Run(ctx context.Context, input, output string) (*Stats, error) {
	cols := d.Columns
	cols.applyDefaults()

	stats := &Stats{Stage: StageDedup, StartTime: time.Now()}
	logger := logging.With().Str("stage", StageDedup).Logger()

	r, err := dataset.Open(input)
	if err != nil {
		return stats, err
	}
	defer func() { _ = r.Close() }()

	// The rating column is not used by the keying, but an input
	// without it is not a ratings file at all.
	if err := r.RequireColumns(cols.User, cols.Item, cols.Rating, cols.Timestamp); err != nil {
		return stats, err
	}
	userIdx, _ := r.Column(cols.User)
	itemIdx, _ := r.Column(cols.Item)
	tsIdx, _ := r.Column(cols.Timestamp)

	type pairKey struct{ user, item string }
	best := make(map[pairKey]keptRow)
	firstSeen := make([]pairKey, 0, 1024)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read %s: %w", input, err)
		}

		stats.TotalRows++
		if d.ProgressEvery > 0 && stats.TotalRows%int64(d.ProgressEvery) == 0 {
			logger.Info().
				Int64("rows", stats.TotalRows).
				Int("unique_pairs", len(best)).
				Msg("dedup progress")
		}

		raw := dataset.Field(record, tsIdx)
		ts, ok := dataset.ParseTimestamp(raw)
		if !ok {
			stats.BadTimestamps++
			logger.Warn().Str("value", raw).Msg("unparseable timestamp treated as 0")
		}

		key := pairKey{dataset.Field(record, userIdx), dataset.Field(record, itemIdx)}
		entry, exists := best[key]
		if !exists {
			firstSeen = append(firstSeen, key)
			best[key] = keptRow{ts: ts, seq: stats.TotalRows, record: record}
			continue
		}
		if ts >= entry.ts {
			best[key] = keptRow{ts: ts, seq: stats.TotalRows, record: record}
		}
	}

	rows := make([]keptRow, 0, len(best))
	if d.KeepOrder {
		for _, kept := range best {
			rows = append(rows, kept)
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].ts != rows[j].ts {
				return rows[i].ts < rows[j].ts
			}
			return rows[i].seq < rows[j].seq
		})
	} else {
		for _, key := range firstSeen {
			rows = append(rows, best[key])
		}
	}

	w, err := dataset.Create(output, r.Header())
	if err != nil {
		return stats, err
	}
	for _, kept := range rows {
		if err := w.Write(kept.record); err != nil {
			w.Abort()
			return stats, err
		}
	}
	if err := w.Commit(); err != nil {
		return stats, err
	}

	stats.Kept = int64(len(rows))
	stats.Dropped = stats.TotalRows - stats.Kept
	stats.EndTime = time.Now()

	metrics.StageCompleted(StageDedup, stats.TotalRows, stats.Duration())
	saveStats(ctx, d.Tracker, stats)

	logger.Info().
		Int64("total_rows", stats.TotalRows).
		Int64("kept", stats.Kept).
		Int64("dropped", stats.Dropped).
		Dur("duration", stats.Duration()).
		Msg("dedup complete")

	return stats, nil
}

// saveStats persists stats through the tracker, logging on failure.
// Persistence problems never fail a stage that already wrote its output.
func saveStats(ctx context.Context, t Tracker, stats *Stats) {
	if t == nil {
		return
	}
	if err := t.Save(ctx, stats); err != nil {
		logging.Warn().Err(err).Str("stage", stats.Stage).Msg("failed to persist stage stats")
	}
}
