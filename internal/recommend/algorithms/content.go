// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package algorithms

import (
	"context"

	"github.com/cinelens/cinelens/internal/recommend"
)

// ContentConfig tunes genre-based content filtering.
type ContentConfig struct {
	// PositiveThreshold is the minimum rating for a movie to count
	// toward a user's genre profile.
	PositiveThreshold float64
}

// Content recommends by genre overlap. A user's profile is the
// weighted genre distribution of their well-rated movies; candidates
// score by how much of their genre list the profile covers. Movie to
// movie similarity is plain Jaccard over genre sets.
//
// Content is the only signal available for movies nobody has rated
// yet, which is why it stays in the blend despite being the weakest
// personalizer.
type Content struct {
	BaseAlgorithm
	config ContentConfig

	// movieGenres maps movie ID to its genre list.
	movieGenres map[int][]string

	// userProfiles maps user ID to genre weights summing to 1.
	userProfiles map[int]map[string]float64
}

// NewContent creates a content-based algorithm.
func NewContent(cfg ContentConfig) *Content {
	if cfg.PositiveThreshold <= 0 {
		cfg.PositiveThreshold = 3.5
	}
	return &Content{
		BaseAlgorithm: NewBaseAlgorithm("content"),
		config:        cfg,
		movieGenres:   make(map[int][]string),
		userProfiles:  make(map[int]map[string]float64),
	}
}

// Train builds genre profiles from well-rated movies.
func (c *Content) Train(ctx context.Context, interactions []recommend.Interaction, items []recommend.Item) error {
	c.acquireTrainLock()
	defer c.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	c.movieGenres = make(map[int][]string, len(items))
	for i := range items {
		if len(items[i].Genres) > 0 {
			c.movieGenres[items[i].ID] = items[i].Genres
		}
	}

	profiles := make(map[int]map[string]float64)
	for i := range interactions {
		inter := &interactions[i]
		if inter.Rating < c.config.PositiveThreshold {
			continue
		}
		genres, ok := c.movieGenres[inter.MovieID]
		if !ok {
			continue
		}

		profile := profiles[inter.UserID]
		if profile == nil {
			profile = make(map[string]float64)
			profiles[inter.UserID] = profile
		}
		weight := inter.Confidence
		if weight <= 0 {
			weight = recommend.ConfidenceFromRating(inter.Rating)
		}
		for _, g := range genres {
			profile[g] += weight
		}
	}

	for _, profile := range profiles {
		var total float64
		for _, w := range profile {
			total += w
		}
		if total > 0 {
			for g := range profile {
				profile[g] /= total
			}
		}
	}
	c.userProfiles = profiles

	c.markTrained()
	return nil
}

// Predict scores candidates by how well their genres match the user's
// profile.
func (c *Content) Predict(_ context.Context, userID int, candidates []int) (map[int]float64, error) {
	c.acquirePredictLock()
	defer c.releasePredictLock()

	if !c.trained {
		return nil, nil
	}
	profile, ok := c.userProfiles[userID]
	if !ok || len(profile) == 0 {
		return nil, nil
	}

	scores := make(map[int]float64)
	for _, id := range candidates {
		genres, ok := c.movieGenres[id]
		if !ok {
			continue
		}
		var score float64
		for _, g := range genres {
			score += profile[g]
		}
		if score > 0 {
			scores[id] = score / float64(len(genres))
		}
	}
	return normalizeScores(scores), nil
}

// PredictSimilar scores candidates by genre Jaccard similarity with
// the given movie.
func (c *Content) PredictSimilar(_ context.Context, movieID int, candidates []int) (map[int]float64, error) {
	c.acquirePredictLock()
	defer c.releasePredictLock()

	if !c.trained {
		return nil, nil
	}
	genres, ok := c.movieGenres[movieID]
	if !ok {
		return nil, nil
	}

	scores := make(map[int]float64)
	for _, id := range candidates {
		if id == movieID {
			continue
		}
		if sim := jaccardSimilarity(genres, c.movieGenres[id]); sim > 0 {
			scores[id] = sim
		}
	}
	return scores, nil
}
