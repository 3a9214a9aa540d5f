// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

// Package dataset models MovieLens CSV files and provides streaming
// readers and atomic writers for them.
//
// The pipeline stages operate on raw records (header plus string
// fields) so unknown columns pass through untouched; the typed Rating
// and Movie structs are used by the store and the recommendation
// engine once data has been processed.
package dataset

import (
	"sort"
	"strconv"
	"strings"
)

// Default column names in MovieLens CSV headers.
const (
	DefaultUserColumn      = "userId"
	DefaultItemColumn      = "movieId"
	DefaultRatingColumn    = "rating"
	DefaultTimestampColumn = "timestamp"
	DefaultGenresColumn    = "genres"
)

// NoGenresListed is the placeholder MovieLens uses for movies without
// genre metadata. When present it overrides any other parsed genre.
const NoGenresListed = "(no genres listed)"

// GenreList is the canonical MovieLens genre vocabulary in its
// documented order. The exact strings matter: one-hot column headers
// must match them, including the placeholder.
var GenreList = []string{
	"Action",
	"Adventure",
	"Animation",
	"Children",
	"Comedy",
	"Crime",
	"Documentary",
	"Drama",
	"Fantasy",
	"Film-Noir",
	"Horror",
	"Musical",
	"Mystery",
	"Romance",
	"Sci-Fi",
	"Thriller",
	"War",
	"Western",
	NoGenresListed,
}

// Genres returns the genre vocabulary, optionally sorted
// alphabetically. The returned slice is always a copy.
func Genres(sorted bool) []string {
	out := make([]string, len(GenreList))
	copy(out, GenreList)
	if sorted {
		sort.Strings(out)
	}
	return out
}

// Rating is one user-movie rating event.
type Rating struct {
	UserID    int     `json:"user_id"`
	MovieID   int     `json:"movie_id"`
	Rating    float64 `json:"rating"`
	Timestamp int64   `json:"timestamp"`
}

// Movie is one catalog entry.
type Movie struct {
	ID     int      `json:"id"`
	Title  string   `json:"title"`
	Genres []string `json:"genres"`
}

// Year extracts the release year from a MovieLens title of the form
// "Toy Story (1995)". Returns 0 when the title carries no year.
func (m Movie) Year() int {
	t := strings.TrimSpace(m.Title)
	if len(t) < 6 || !strings.HasSuffix(t, ")") {
		return 0
	}
	open := strings.LastIndex(t, "(")
	if open < 0 {
		return 0
	}
	year, err := strconv.Atoi(t[open+1 : len(t)-1])
	if err != nil || year < 1800 || year > 3000 {
		return 0
	}
	return year
}

// ParseGenres splits a pipe-separated genre field into trimmed,
// non-empty genre names. The placeholder is preserved as-is.
func ParseGenres(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// ParseTimestamp converts a timestamp field to epoch seconds. Integer
// parsing is tried first, then float truncation. Garbled values map to
// 0 so they sort as very old; ok is false in that case.
func ParseTimestamp(value string) (ts int64, ok bool) {
	if v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
		return v, true
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return int64(f), true
	}
	return 0, false
}
