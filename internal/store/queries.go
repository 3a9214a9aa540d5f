// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cinelens/cinelens/internal/dataset"
)

// Ratings returns all rating rows for model training.
func (db *DB) Ratings(ctx context.Context) ([]dataset.Rating, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT user_id, movie_id, rating, ts FROM ratings")
	if err != nil {
		return nil, fmt.Errorf("query ratings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []dataset.Rating
	for rows.Next() {
		var r dataset.Rating
		if err := rows.Scan(&r.UserID, &r.MovieID, &r.Rating, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Movies returns the full catalog.
func (db *DB) Movies(ctx context.Context) ([]dataset.Movie, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT movie_id, title, genres FROM movies ORDER BY movie_id")
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []dataset.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MovieByID looks up one catalog entry. Returns ErrNotFound when the
// movie does not exist.
func (db *DB) MovieByID(ctx context.Context, id int) (*dataset.Movie, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT movie_id, title, genres FROM movies WHERE movie_id = ?", id)

	var m dataset.Movie
	var genres string
	err := row.Scan(&m.ID, &m.Title, &genres)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("movie %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query movie %d: %w", id, err)
	}
	m.Genres = dataset.ParseGenres(genres)
	return &m, nil
}

// UserHistory returns the movie IDs a user has rated, newest first.
func (db *DB) UserHistory(ctx context.Context, userID int) ([]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT movie_id FROM ratings WHERE user_id = ? ORDER BY ts DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("query history for user %d: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// CandidateMovieIDs returns up to limit movie IDs ordered by rating
// count descending. This bounds the scoring work per request while
// keeping the widely rated catalog in play.
func (db *DB) CandidateMovieIDs(ctx context.Context, limit int) ([]int, error) {
	if limit <= 0 {
		limit = 20000
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT m.movie_id
		FROM movies m
		LEFT JOIN ratings r ON r.movie_id = m.movie_id
		GROUP BY m.movie_id
		ORDER BY count(r.user_id) DESC, m.movie_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Counts summarizes the stored dataset.
type Counts struct {
	Ratings int64 `json:"ratings"`
	Users   int64 `json:"users"`
	Movies  int64 `json:"movies"`
}

// Stats returns dataset row counts.
func (db *DB) Stats(ctx context.Context) (*Counts, error) {
	var c Counts
	row := db.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT count(*) FROM ratings),
			(SELECT count(DISTINCT user_id) FROM ratings),
			(SELECT count(*) FROM movies)`)
	if err := row.Scan(&c.Ratings, &c.Users, &c.Movies); err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return &c, nil
}

// scanMovie scans one movie row, splitting the genre field.
func scanMovie(rows *sql.Rows) (dataset.Movie, error) {
	var m dataset.Movie
	var genres string
	if err := rows.Scan(&m.ID, &m.Title, &genres); err != nil {
		return m, fmt.Errorf("scan movie: %w", err)
	}
	m.Genres = dataset.ParseGenres(genres)
	return m, nil
}
