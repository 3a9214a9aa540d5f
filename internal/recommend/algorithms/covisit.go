// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package algorithms

import (
	"context"
	"sort"
	"time"

	"github.com/cinelens/cinelens/internal/recommend"
)

// CoVisitConfig tunes co-visitation counting.
type CoVisitConfig struct {
	// Window bounds the rating-time gap for two movies to count as
	// co-visited by a user.
	Window time.Duration

	// MinCoOccurrence drops pairs seen fewer times than this.
	MinCoOccurrence int

	// MaxPairs caps the stored pair count; the least frequent pairs
	// are dropped first.
	MaxPairs int
}

// CoVisitation counts movies the same user rated close together in
// time. Temporal proximity is a sequential signal that plain
// co-occurrence misses: two movies rated the same evening are related
// in a way two movies rated years apart are not.
type CoVisitation struct {
	BaseAlgorithm
	config CoVisitConfig

	// coCounts maps movie ID to co-visited movies and their counts.
	coCounts map[int]map[int]float64

	// userRecent maps user ID to that user's rated movie IDs, newest
	// first.
	userRecent map[int][]int
}

// NewCoVisitation creates a co-visitation algorithm.
func NewCoVisitation(cfg CoVisitConfig) *CoVisitation {
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	if cfg.MinCoOccurrence <= 0 {
		cfg.MinCoOccurrence = 2
	}
	if cfg.MaxPairs <= 0 {
		cfg.MaxPairs = 500000
	}
	return &CoVisitation{
		BaseAlgorithm: NewBaseAlgorithm("covisit"),
		config:        cfg,
		coCounts:      make(map[int]map[int]float64),
		userRecent:    make(map[int][]int),
	}
}

// Train counts time-windowed co-ratings.
func (c *CoVisitation) Train(ctx context.Context, interactions []recommend.Interaction, _ []recommend.Item) error {
	c.acquireTrainLock()
	defer c.releaseTrainLock()

	c.coCounts = make(map[int]map[int]float64)
	c.userRecent = make(map[int][]int)

	type visit struct {
		movieID   int
		timestamp int64
	}
	byUser := make(map[int][]visit)
	for i := range interactions {
		byUser[interactions[i].UserID] = append(byUser[interactions[i].UserID], visit{
			movieID:   interactions[i].MovieID,
			timestamp: interactions[i].Timestamp,
		})
	}

	windowSecs := int64(c.config.Window / time.Second)
	type pairKey [2]int
	pairCounts := make(map[pairKey]float64)

	for userID, visits := range byUser {
		if ContextCancelled(ctx) {
			return ctx.Err()
		}
		sort.Slice(visits, func(i, j int) bool {
			return visits[i].timestamp < visits[j].timestamp
		})

		recent := make([]int, 0, len(visits))
		for i := len(visits) - 1; i >= 0; i-- {
			recent = append(recent, visits[i].movieID)
		}
		c.userRecent[userID] = recent

		for i := 0; i < len(visits); i++ {
			for j := i + 1; j < len(visits); j++ {
				if visits[j].timestamp-visits[i].timestamp > windowSecs {
					break
				}
				a, b := visits[i].movieID, visits[j].movieID
				if a == b {
					continue
				}
				if a > b {
					a, b = b, a
				}
				pairCounts[pairKey{a, b}]++
			}
		}
	}

	// Drop rare pairs, then enforce the cap from the least frequent
	// end.
	type pairCount struct {
		key   pairKey
		count float64
	}
	kept := make([]pairCount, 0, len(pairCounts))
	for key, count := range pairCounts {
		if count >= float64(c.config.MinCoOccurrence) {
			kept = append(kept, pairCount{key, count})
		}
	}
	if len(kept) > c.config.MaxPairs {
		sort.Slice(kept, func(i, j int) bool {
			if kept[i].count != kept[j].count {
				return kept[i].count > kept[j].count
			}
			if kept[i].key[0] != kept[j].key[0] {
				return kept[i].key[0] < kept[j].key[0]
			}
			return kept[i].key[1] < kept[j].key[1]
		})
		kept = kept[:c.config.MaxPairs]
	}

	for _, pc := range kept {
		a, b := pc.key[0], pc.key[1]
		if c.coCounts[a] == nil {
			c.coCounts[a] = make(map[int]float64)
		}
		if c.coCounts[b] == nil {
			c.coCounts[b] = make(map[int]float64)
		}
		c.coCounts[a][b] = pc.count
		c.coCounts[b][a] = pc.count
	}

	c.markTrained()
	return nil
}

// Predict scores candidates by co-visitation with the user's most
// recent movies. Recent movies carry more weight.
func (c *CoVisitation) Predict(_ context.Context, userID int, candidates []int) (map[int]float64, error) {
	c.acquirePredictLock()
	defer c.releasePredictLock()

	if !c.trained {
		return nil, nil
	}
	recent, ok := c.userRecent[userID]
	if !ok || len(recent) == 0 {
		return nil, nil
	}

	const maxRecent = 20
	if len(recent) > maxRecent {
		recent = recent[:maxRecent]
	}

	candidateSet := make(map[int]struct{}, len(candidates))
	for _, id := range candidates {
		candidateSet[id] = struct{}{}
	}

	scores := make(map[int]float64)
	for i, movieID := range recent {
		weight := 1.0 / float64(i+1)
		for coID, count := range c.coCounts[movieID] {
			if _, want := candidateSet[coID]; want {
				scores[coID] += weight * count
			}
		}
	}
	return normalizeScores(scores), nil
}

// PredictSimilar scores candidates by co-visitation count with the
// given movie.
func (c *CoVisitation) PredictSimilar(_ context.Context, movieID int, candidates []int) (map[int]float64, error) {
	c.acquirePredictLock()
	defer c.releasePredictLock()

	if !c.trained {
		return nil, nil
	}
	counts, ok := c.coCounts[movieID]
	if !ok {
		return nil, nil
	}

	candidateSet := make(map[int]struct{}, len(candidates))
	for _, id := range candidates {
		candidateSet[id] = struct{}{}
	}

	scores := make(map[int]float64, len(counts))
	for coID, count := range counts {
		if _, want := candidateSet[coID]; want && coID != movieID {
			scores[coID] = count
		}
	}
	return normalizeScores(scores), nil
}
