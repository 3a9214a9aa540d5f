// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

// Package pipeline implements the batch stages that turn raw MovieLens
// CSV files into processed training data: ratings deduplication,
// low-activity user filtering, and genre one-hot encoding.
package pipeline

import (
	"time"
)

// Stage names as recorded in stats and progress storage.
const (
	StageDedup  = "dedup"
	StageFilter = "filter-users"
	StageOneHot = "onehot"
)

// Stats holds counters for one pipeline stage run.
type Stats struct {
	// Stage is the stage name.
	Stage string `json:"stage"`

	// TotalRows is the number of input data rows read.
	TotalRows int64 `json:"total_rows"`

	// Kept is the number of rows written to the output.
	Kept int64 `json:"kept"`

	// Dropped is the number of rows removed by the stage.
	Dropped int64 `json:"dropped"`

	// BadTimestamps counts rows whose timestamp could not be parsed
	// and was treated as 0 (very old).
	BadTimestamps int64 `json:"bad_timestamps"`

	// UsersKept is the number of distinct users surviving the
	// activity filter. Zero for stages that do not track users.
	UsersKept int64 `json:"users_kept,omitempty"`

	// StartTime is when the stage started.
	StartTime time.Time `json:"start_time"`

	// EndTime is when the stage completed (zero while running).
	EndTime time.Time `json:"end_time"`
}

// Duration returns how long the stage has been running, or ran.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// RowsPerSecond returns the processing rate.
func (s *Stats) RowsPerSecond() float64 {
	secs := s.Duration().Seconds()
	if secs == 0 {
		return 0
	}
	return float64(s.TotalRows) / secs
}

// Summary is the JSON-friendly view of stage stats with derived fields.
type Summary struct {
	Stage          string    `json:"stage"`
	Status         string    `json:"status"`
	TotalRows      int64     `json:"total_rows"`
	Kept           int64     `json:"kept"`
	Dropped        int64     `json:"dropped"`
	BadTimestamps  int64     `json:"bad_timestamps"`
	UsersKept      int64     `json:"users_kept,omitempty"`
	RowsPerSecond  float64   `json:"rows_per_second"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	StartTime      time.Time `json:"start_time"`
}

// ToSummary converts stats to a Summary.
func (s *Stats) ToSummary(running bool) *Summary {
	status := "completed"
	switch {
	case running:
		status = "running"
	case s.EndTime.IsZero():
		status = "pending"
	}

	return &Summary{
		Stage:          s.Stage,
		Status:         status,
		TotalRows:      s.TotalRows,
		Kept:           s.Kept,
		Dropped:        s.Dropped,
		BadTimestamps:  s.BadTimestamps,
		UsersKept:      s.UsersKept,
		RowsPerSecond:  s.RowsPerSecond(),
		ElapsedSeconds: s.Duration().Seconds(),
		StartTime:      s.StartTime,
	}
}
