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

// ItemCFConfig tunes item-based collaborative filtering.
type ItemCFConfig struct {
	// K is the neighbor list size kept per movie. Typical range
	// 20-100.
	K int

	// Shrinkage regularizes similarities computed from few co-raters:
	// sim = raw_sim * n / (n + shrinkage).
	Shrinkage float64

	// MinCommonUsers is the minimum co-rater count for a pair to get a
	// similarity at all.
	MinCommonUsers int
}

// neighbor is a similar movie with its similarity score.
type neighbor struct {
	ID         int
	Similarity float64
}

// ItemCF implements item-based collaborative filtering over
// mean-centered ratings.
//
// Similarity between two movies is the cosine of their centered rating
// vectors across co-raters, shrunk toward zero when few users rated
// both. Prediction sums similarities between each candidate and the
// movies the user has rated:
//
//	score(u, i) = sum_{j in H(u)} sim(i, j) * conf(u, j)
type ItemCF struct {
	BaseAlgorithm
	config ItemCFConfig

	// movieRaters maps movie ID to its raters (user ID -> centered
	// rating).
	movieRaters map[int]map[int]float64

	// neighbors holds the top-K similar movies per movie.
	neighbors map[int][]neighbor

	// userMovies maps user ID to rated movies (movie ID -> confidence).
	userMovies map[int]map[int]float64
}

// NewItemCF creates an item-based CF algorithm.
func NewItemCF(cfg ItemCFConfig) *ItemCF {
	if cfg.K <= 0 {
		cfg.K = 50
	}
	if cfg.Shrinkage < 0 {
		cfg.Shrinkage = 0
	}
	if cfg.MinCommonUsers <= 0 {
		cfg.MinCommonUsers = 3
	}
	return &ItemCF{
		BaseAlgorithm: NewBaseAlgorithm("itemcf"),
		config:        cfg,
		movieRaters:   make(map[int]map[int]float64),
		neighbors:     make(map[int][]neighbor),
		userMovies:    make(map[int]map[int]float64),
	}
}

// Train builds the item-item similarity model.
func (c *ItemCF) Train(ctx context.Context, interactions []recommend.Interaction, _ []recommend.Item) error {
	c.acquireTrainLock()
	defer c.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	c.movieRaters = make(map[int]map[int]float64)
	c.neighbors = make(map[int][]neighbor)
	c.userMovies = make(map[int]map[int]float64)

	// Mean-center ratings per user so heavy raters and generous
	// raters do not dominate similarities.
	userSum := make(map[int]float64)
	userCount := make(map[int]int)
	for i := range interactions {
		userSum[interactions[i].UserID] += interactions[i].Rating
		userCount[interactions[i].UserID]++
	}

	for i := range interactions {
		inter := &interactions[i]
		mean := userSum[inter.UserID] / float64(userCount[inter.UserID])
		centered := inter.Rating - mean

		raters := c.movieRaters[inter.MovieID]
		if raters == nil {
			raters = make(map[int]float64)
			c.movieRaters[inter.MovieID] = raters
		}
		raters[inter.UserID] = centered

		movies := c.userMovies[inter.UserID]
		if movies == nil {
			movies = make(map[int]float64)
			c.userMovies[inter.UserID] = movies
		}
		conf := inter.Confidence
		if conf <= 0 {
			conf = recommend.ConfidenceFromRating(inter.Rating)
		}
		movies[inter.MovieID] = conf
	}

	// Accumulate pairwise dot products through each user's rated
	// movies instead of comparing every movie pair.
	type pairStats struct {
		dot     float64
		overlap int
	}
	pairs := make(map[[2]int]*pairStats)
	norms := make(map[int]float64)

	for movieID, raters := range c.movieRaters {
		for _, r := range raters {
			norms[movieID] += r * r
		}
	}

	for userID, movies := range c.userMovies {
		if ContextCancelled(ctx) {
			return ctx.Err()
		}
		ids := make([]int, 0, len(movies))
		for id := range movies {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for i := 0; i < len(ids); i++ {
			ri := c.movieRaters[ids[i]][userID]
			for j := i + 1; j < len(ids); j++ {
				key := [2]int{ids[i], ids[j]}
				ps := pairs[key]
				if ps == nil {
					ps = &pairStats{}
					pairs[key] = ps
				}
				ps.dot += ri * c.movieRaters[ids[j]][userID]
				ps.overlap++
			}
		}
	}

	sims := make(map[int]map[int]float64)
	for key, ps := range pairs {
		if ps.overlap < c.config.MinCommonUsers {
			continue
		}
		sim := sparseCosine(ps.dot, norms[key[0]], norms[key[1]], ps.overlap, c.config.Shrinkage)
		if sim <= 0 {
			continue
		}
		for _, pair := range [][2]int{{key[0], key[1]}, {key[1], key[0]}} {
			m := sims[pair[0]]
			if m == nil {
				m = make(map[int]float64)
				sims[pair[0]] = m
			}
			m[pair[1]] = sim
		}
	}

	for movieID, simMap := range sims {
		kept := topK(simMap, c.config.K)
		list := make([]neighbor, 0, len(kept))
		for id, sim := range kept {
			list = append(list, neighbor{ID: id, Similarity: sim})
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Similarity != list[j].Similarity {
				return list[i].Similarity > list[j].Similarity
			}
			return list[i].ID < list[j].ID
		})
		c.neighbors[movieID] = list
	}

	c.markTrained()
	return nil
}

// Predict scores candidates by their similarity to the user's rated
// movies.
func (c *ItemCF) Predict(_ context.Context, userID int, candidates []int) (map[int]float64, error) {
	c.acquirePredictLock()
	defer c.releasePredictLock()

	if !c.trained {
		return nil, nil
	}
	history, ok := c.userMovies[userID]
	if !ok || len(history) == 0 {
		return nil, nil
	}

	candidateSet := make(map[int]struct{}, len(candidates))
	for _, id := range candidates {
		candidateSet[id] = struct{}{}
	}

	scores := make(map[int]float64)
	for movieID, conf := range history {
		for _, n := range c.neighbors[movieID] {
			if _, want := candidateSet[n.ID]; !want {
				continue
			}
			if _, rated := history[n.ID]; rated {
				continue
			}
			scores[n.ID] += n.Similarity * conf
		}
	}
	return normalizeScores(scores), nil
}

// PredictSimilar scores candidates by their similarity to the given
// movie.
func (c *ItemCF) PredictSimilar(_ context.Context, movieID int, candidates []int) (map[int]float64, error) {
	c.acquirePredictLock()
	defer c.releasePredictLock()

	if !c.trained {
		return nil, nil
	}
	list, ok := c.neighbors[movieID]
	if !ok {
		return nil, nil
	}

	candidateSet := make(map[int]struct{}, len(candidates))
	for _, id := range candidates {
		candidateSet[id] = struct{}{}
	}

	scores := make(map[int]float64, len(list))
	for _, n := range list {
		if _, want := candidateSet[n.ID]; want && n.ID != movieID {
			scores[n.ID] = n.Similarity
		}
	}
	return normalizeScores(scores), nil
}
