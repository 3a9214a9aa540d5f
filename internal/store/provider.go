// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package store

import (
	"context"
	"fmt"

	"github.com/cinelens/cinelens/internal/recommend"
)

// DataProvider adapts the store to the recommendation engine's data
// interface.
type DataProvider struct {
	db *DB
}

// NewDataProvider creates a data provider over the store.
func NewDataProvider(db *DB) *DataProvider {
	return &DataProvider{db: db}
}

// TrainingData loads all ratings as interactions plus the movie
// catalog.
func (p *DataProvider) TrainingData(ctx context.Context) ([]recommend.Interaction, []recommend.Item, error) {
	ratings, err := p.db.Ratings(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load ratings: %w", err)
	}
	movies, err := p.db.Movies(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load movies: %w", err)
	}

	interactions := make([]recommend.Interaction, len(ratings))
	for i, r := range ratings {
		interactions[i] = recommend.Interaction{
			UserID:     r.UserID,
			MovieID:    r.MovieID,
			Rating:     r.Rating,
			Confidence: recommend.ConfidenceFromRating(r.Rating),
			Timestamp:  r.Timestamp,
		}
	}

	items := make([]recommend.Item, len(movies))
	for i := range movies {
		items[i] = recommend.Item{
			ID:     movies[i].ID,
			Title:  movies[i].Title,
			Genres: movies[i].Genres,
			Year:   movies[i].Year(),
		}
	}
	return interactions, items, nil
}

// UserHistory returns the movie IDs the user has rated.
func (p *DataProvider) UserHistory(ctx context.Context, userID int) ([]int, error) {
	return p.db.UserHistory(ctx, userID)
}

// Candidates returns up to limit movie IDs ordered by rating count.
func (p *DataProvider) Candidates(ctx context.Context, limit int) ([]int, error) {
	return p.db.CandidateMovieIDs(ctx, limit)
}

var _ recommend.DataProvider = (*DataProvider)(nil)
