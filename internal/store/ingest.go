// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cinelens/cinelens/internal/logging"
)

// RatingColumns names the CSV columns of a processed ratings file.
type RatingColumns struct {
	User      string
	Item      string
	Rating    string
	Timestamp string
}

// MovieColumns names the CSV columns of a movies file.
type MovieColumns struct {
	ID     string
	Title  string
	Genres string
}

// IngestRatings bulk-loads a processed ratings CSV, replacing the
// ratings table contents. DuckDB's read_csv does the parsing, so the
// load stays inside the database engine.
func (db *DB) IngestRatings(ctx context.Context, path string, cols RatingColumns) (int64, error) {
	if cols.User == "" {
		cols.User = "userId"
	}
	if cols.Item == "" {
		cols.Item = "movieId"
	}
	if cols.Rating == "" {
		cols.Rating = "rating"
	}
	if cols.Timestamp == "" {
		cols.Timestamp = "timestamp"
	}

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin ingest: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ratings"); err != nil {
		return 0, fmt.Errorf("clear ratings: %w", err)
	}

	query := fmt.Sprintf(
		`INSERT INTO ratings
		 SELECT %s::INTEGER, %s::INTEGER, %s::DOUBLE, %s::BIGINT
		 FROM read_csv(%s, header=true)`,
		quoteIdent(cols.User), quoteIdent(cols.Item),
		quoteIdent(cols.Rating), quoteIdent(cols.Timestamp),
		quoteLiteral(path),
	)
	res, err := tx.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("load ratings from %s: %w", path, err)
	}
	rows, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ingest: %w", err)
	}

	logging.Info().
		Int64("rows", rows).
		Str("path", path).
		Dur("duration", time.Since(start)).
		Msg("ratings ingested")
	return rows, nil
}

// IngestMovies bulk-loads a movies CSV (movieId, title, genres),
// replacing the movies table contents. Genres stay pipe-separated.
func (db *DB) IngestMovies(ctx context.Context, path string, cols MovieColumns) (int64, error) {
	if cols.ID == "" {
		cols.ID = "movieId"
	}
	if cols.Title == "" {
		cols.Title = "title"
	}
	if cols.Genres == "" {
		cols.Genres = "genres"
	}

	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin ingest: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM movies"); err != nil {
		return 0, fmt.Errorf("clear movies: %w", err)
	}

	query := fmt.Sprintf(
		`INSERT INTO movies
		 SELECT %s::INTEGER, %s::VARCHAR, %s::VARCHAR
		 FROM read_csv(%s, header=true)`,
		quoteIdent(cols.ID), quoteIdent(cols.Title), quoteIdent(cols.Genres),
		quoteLiteral(path),
	)
	res, err := tx.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("load movies from %s: %w", path, err)
	}
	rows, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit ingest: %w", err)
	}

	logging.Info().
		Int64("rows", rows).
		Str("path", path).
		Dur("duration", time.Since(start)).
		Msg("movies ingested")
	return rows, nil
}
