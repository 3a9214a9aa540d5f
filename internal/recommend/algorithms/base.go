// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

// Package algorithms implements the recommendation algorithms the
// hybrid engine blends.
//
// Each algorithm implements the recommend.Algorithm interface and is
// registered with the engine at startup:
//
//   - Popularity: confidence-weighted rating counts, the cold-start
//     baseline
//   - ItemCF: item-based collaborative filtering with cosine
//     similarity over mean-centered ratings
//   - CoVisitation: time-windowed co-rating counts, a sequential
//     signal
//   - Content: genre overlap against the user's liked movies
//
// All algorithms are safe for concurrent use. Training acquires an
// exclusive lock while prediction takes a shared lock.
package algorithms

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/cinelens/cinelens/internal/recommend"
)

// BaseAlgorithm provides the lifecycle bookkeeping shared by all
// algorithms.
type BaseAlgorithm struct {
	name          string
	trained       bool
	version       int
	lastTrainedAt time.Time
	mu            sync.RWMutex
}

// NewBaseAlgorithm creates a base with the given name.
func NewBaseAlgorithm(name string) BaseAlgorithm {
	return BaseAlgorithm{name: name}
}

// Name returns the algorithm identifier.
func (b *BaseAlgorithm) Name() string {
	return b.name
}

// IsTrained reports whether the model has been trained.
func (b *BaseAlgorithm) IsTrained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// Version returns the model version.
func (b *BaseAlgorithm) Version() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// LastTrainedAt returns when the model was last trained.
func (b *BaseAlgorithm) LastTrainedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastTrainedAt
}

// markTrained updates the trained state. Callers must hold the
// training lock.
func (b *BaseAlgorithm) markTrained() {
	b.trained = true
	b.version++
	b.lastTrainedAt = time.Now()
}

func (b *BaseAlgorithm) acquireTrainLock()   { b.mu.Lock() }
func (b *BaseAlgorithm) releaseTrainLock()   { b.mu.Unlock() }
func (b *BaseAlgorithm) acquirePredictLock() { b.mu.RLock() }
func (b *BaseAlgorithm) releasePredictLock() { b.mu.RUnlock() }

// normalizeScores scales scores to [0, 1] with min-max normalization.
// Equal scores all become 0.5.
func normalizeScores(scores map[int]float64) map[int]float64 {
	if len(scores) == 0 {
		return scores
	}

	var minScore, maxScore float64
	first := true
	for _, score := range scores {
		if first {
			minScore, maxScore = score, score
			first = false
			continue
		}
		if score < minScore {
			minScore = score
		}
		if score > maxScore {
			maxScore = score
		}
	}

	spread := maxScore - minScore
	if spread == 0 {
		for id := range scores {
			scores[id] = 0.5
		}
		return scores
	}

	for id, score := range scores {
		scores[id] = (score - minScore) / spread
	}
	return scores
}

// jaccardSimilarity computes Jaccard similarity between two string
// sets.
func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[s] = struct{}{}
	}

	intersection := 0
	for s := range setA {
		if _, ok := setB[s]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// sparseCosine computes cosine similarity between two sparse vectors
// with shrinkage regularization. overlap is the number of shared keys.
func sparseCosine(dot, normA, normB float64, overlap int, shrinkage float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if shrinkage > 0 {
		sim *= float64(overlap) / (float64(overlap) + shrinkage)
	}
	return sim
}

// topK keeps the k highest-scored entries of scores, ties broken by
// lower ID.
func topK(scores map[int]float64, k int) map[int]float64 {
	if k <= 0 || len(scores) <= k {
		return scores
	}

	type entry struct {
		id    int
		score float64
	}
	entries := make([]entry, 0, len(scores))
	for id, score := range scores {
		entries = append(entries, entry{id, score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].id < entries[j].id
	})

	kept := make(map[int]float64, k)
	for _, e := range entries[:k] {
		kept[e.id] = e.score
	}
	return kept
}

// ContextCancelled reports whether the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Ensure all algorithms implement the interface.
var (
	_ recommend.Algorithm = (*Popularity)(nil)
	_ recommend.Algorithm = (*ItemCF)(nil)
	_ recommend.Algorithm = (*CoVisitation)(nil)
	_ recommend.Algorithm = (*Content)(nil)
)
