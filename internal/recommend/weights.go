// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package recommend

import (
	"github.com/cinelens/cinelens/internal/config"
)

// Algorithm names used for weight lookup and registration.
const (
	AlgPopularity = "popularity"
	AlgItemCF     = "itemcf"
	AlgCoVisit    = "covisit"
	AlgContent    = "content"
)

// NormalizeWeights converts the configured blend weights into a
// name-keyed map summing to 1.0. All-zero weights become equal weights
// so a blank config still blends every algorithm.
func NormalizeWeights(w config.WeightsConfig) map[string]float64 {
	weights := map[string]float64{
		AlgPopularity: w.Popularity,
		AlgItemCF:     w.ItemCF,
		AlgCoVisit:    w.CoVisit,
		AlgContent:    w.Content,
	}

	var sum float64
	for _, v := range weights {
		if v > 0 {
			sum += v
		}
	}
	if sum == 0 {
		equal := 1.0 / float64(len(weights))
		for name := range weights {
			weights[name] = equal
		}
		return weights
	}

	for name, v := range weights {
		if v < 0 {
			v = 0
		}
		weights[name] = v / sum
	}
	return weights
}
