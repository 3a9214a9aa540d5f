// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package algorithms

import (
	"context"
	"sort"

	"github.com/cinelens/cinelens/internal/recommend"
)

// Popularity ranks movies by their confidence-weighted rating count.
// It serves as the cold-start baseline and as the fallback when the
// personalized blend produces no scores.
//
// The popularity score is:
//
//	score(movie) = sum(confidence) over all ratings of movie
type Popularity struct {
	BaseAlgorithm

	maxItems int

	movieScores map[int]float64
	sortedIDs   []int
}

// PopularityConfig configures the popularity algorithm.
type PopularityConfig struct {
	// MaxItems limits how many movies are tracked. Zero means 10000.
	MaxItems int
}

// NewPopularity creates a popularity algorithm.
func NewPopularity(cfg PopularityConfig) *Popularity {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 10000
	}
	return &Popularity{
		BaseAlgorithm: NewBaseAlgorithm("popularity"),
		maxItems:      cfg.MaxItems,
		movieScores:   make(map[int]float64),
	}
}

// Train computes popularity scores from the interactions.
func (p *Popularity) Train(ctx context.Context, interactions []recommend.Interaction, _ []recommend.Item) error {
	p.acquireTrainLock()
	defer p.releaseTrainLock()

	p.movieScores = make(map[int]float64)
	p.sortedIDs = nil

	for i := range interactions {
		if ContextCancelled(ctx) {
			return ctx.Err()
		}
		weight := interactions[i].Confidence
		if weight <= 0 {
			weight = recommend.ConfidenceFromRating(interactions[i].Rating)
		}
		p.movieScores[interactions[i].MovieID] += weight
	}

	type scoredMovie struct {
		id    int
		score float64
	}
	scored := make([]scoredMovie, 0, len(p.movieScores))
	for id, score := range p.movieScores {
		scored = append(scored, scoredMovie{id, score})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].id < scored[j].id
	})

	if len(scored) > p.maxItems {
		for _, s := range scored[p.maxItems:] {
			delete(p.movieScores, s.id)
		}
		scored = scored[:p.maxItems]
	}

	p.sortedIDs = make([]int, len(scored))
	for i, s := range scored {
		p.sortedIDs[i] = s.id
	}

	p.markTrained()
	return nil
}

// Predict returns normalized popularity scores for the candidates.
// The user ID is ignored.
func (p *Popularity) Predict(_ context.Context, _ int, candidates []int) (map[int]float64, error) {
	p.acquirePredictLock()
	defer p.releasePredictLock()

	if !p.trained || len(p.movieScores) == 0 {
		return nil, nil
	}

	scores := make(map[int]float64, len(candidates))
	for _, id := range candidates {
		if score, ok := p.movieScores[id]; ok {
			scores[id] = score
		}
	}
	return normalizeScores(scores), nil
}

// PredictSimilar returns popularity scores; similarity does not apply
// to this algorithm.
func (p *Popularity) PredictSimilar(ctx context.Context, _ int, candidates []int) (map[int]float64, error) {
	return p.Predict(ctx, 0, candidates)
}

// TopK returns the k most popular movie IDs.
func (p *Popularity) TopK(k int) []int {
	p.acquirePredictLock()
	defer p.releasePredictLock()

	if k <= 0 || len(p.sortedIDs) == 0 {
		return nil
	}
	if k > len(p.sortedIDs) {
		k = len(p.sortedIDs)
	}
	out := make([]int, k)
	copy(out, p.sortedIDs[:k])
	return out
}
