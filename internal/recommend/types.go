// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

// Package recommend implements the hybrid recommendation engine.
//
// The engine blends scores from several registered algorithms
// (popularity, item-based CF, co-visitation, content) into a single
// ranking. Algorithms train on explicit MovieLens ratings converted to
// implicit-feedback confidence weights.
package recommend

import (
	"context"
	"time"
)

// Interaction is one user-movie rating converted for training.
type Interaction struct {
	// UserID is the MovieLens user identifier.
	UserID int `json:"user_id"`

	// MovieID is the MovieLens movie identifier.
	MovieID int `json:"movie_id"`

	// Rating is the explicit star rating (0.5-5.0).
	Rating float64 `json:"rating"`

	// Confidence is the implicit-feedback weight derived from Rating.
	Confidence float64 `json:"confidence"`

	// Timestamp is the rating time in epoch seconds.
	Timestamp int64 `json:"timestamp"`
}

// ConfidenceFromRating maps a star rating to a confidence weight.
// Non-zero for low ratings to avoid singularities in training.
func ConfidenceFromRating(rating float64) float64 {
	switch {
	case rating >= 4.0:
		return 1.0
	case rating >= 3.0:
		return 0.6
	default:
		return 0.2
	}
}

// Item is a movie with the metadata algorithms need.
type Item struct {
	// ID is the MovieLens movie identifier.
	ID int `json:"id"`

	// Title is the movie title, usually with a trailing year.
	Title string `json:"title"`

	// Genres is the genre list.
	Genres []string `json:"genres"`

	// Year is the release year extracted from the title, 0 if unknown.
	Year int `json:"year,omitempty"`
}

// ScoredItem is an item with its recommendation score.
type ScoredItem struct {
	// Item is the movie metadata.
	Item Item `json:"item"`

	// Score is the blended recommendation score (0-1, higher is better).
	Score float64 `json:"score"`

	// Scores breaks the blended score down by algorithm.
	Scores map[string]float64 `json:"scores,omitempty"`

	// Reason names the dominant algorithm, for interpretability.
	Reason string `json:"reason,omitempty"`
}

// Mode selects the type of recommendations to generate.
type Mode int

const (
	// ModePersonalized generates personalized recommendations.
	ModePersonalized Mode = iota
	// ModeSimilar generates "more like this" recommendations.
	ModeSimilar
	// ModePopular returns popularity-ranked movies.
	ModePopular
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModePersonalized:
		return "personalized"
	case ModeSimilar:
		return "similar"
	case ModePopular:
		return "popular"
	default:
		return "unknown"
	}
}

// Request asks the engine for recommendations.
type Request struct {
	// UserID is the user to recommend for (personalized mode).
	UserID int `json:"user_id,omitempty"`

	// MovieID is the anchor movie (similar mode).
	MovieID int `json:"movie_id,omitempty"`

	// K is the number of results to return. Zero uses the configured
	// default; values above the configured maximum are capped.
	K int `json:"k,omitempty"`

	// Mode selects the recommendation type.
	Mode Mode `json:"mode,omitempty"`

	// RequestID is a unique identifier for tracing.
	RequestID string `json:"request_id,omitempty"`
}

// Response is the engine's answer.
type Response struct {
	Items    []ScoredItem `json:"items"`
	Metadata Metadata     `json:"metadata"`
}

// Metadata describes how a response was produced.
type Metadata struct {
	RequestID      string    `json:"request_id,omitempty"`
	Mode           string    `json:"mode"`
	AlgorithmsUsed []string  `json:"algorithms_used,omitempty"`
	CandidateCount int       `json:"candidate_count"`
	ModelVersion   int       `json:"model_version"`
	CacheHit       bool      `json:"cache_hit"`
	GeneratedAt    time.Time `json:"generated_at"`
	DurationMS     int64     `json:"duration_ms"`
}

// Algorithm is the interface all recommendation algorithms implement.
type Algorithm interface {
	// Name returns the algorithm identifier (e.g. "itemcf", "covisit").
	Name() string

	// Train fits the model on interaction data.
	Train(ctx context.Context, interactions []Interaction, items []Item) error

	// Predict returns scores in [0, 1] for candidate movies for a user.
	Predict(ctx context.Context, userID int, candidates []int) (map[int]float64, error)

	// PredictSimilar returns items similar to the given movie.
	PredictSimilar(ctx context.Context, movieID int, candidates []int) (map[int]float64, error)

	// IsTrained reports whether the model has been trained.
	IsTrained() bool

	// Version returns the model version (incremented on each train).
	Version() int

	// LastTrainedAt returns when the model was last trained.
	LastTrainedAt() time.Time
}

// DataProvider supplies training data and per-request context from the
// store.
type DataProvider interface {
	// TrainingData returns all interactions and the item catalog.
	TrainingData(ctx context.Context) ([]Interaction, []Item, error)

	// UserHistory returns the movie IDs a user has rated.
	UserHistory(ctx context.Context, userID int) ([]int, error)

	// Candidates returns up to limit candidate movie IDs.
	Candidates(ctx context.Context, limit int) ([]int, error)
}

// TrainingStatus reports the engine's training state.
type TrainingStatus struct {
	IsTraining             bool      `json:"is_training"`
	LastTrainedAt          time.Time `json:"last_trained_at"`
	LastTrainingDurationMS int64     `json:"last_training_duration_ms"`
	LastError              string    `json:"last_error,omitempty"`
	InteractionCount       int       `json:"interaction_count"`
	ItemCount              int       `json:"item_count"`
	UserCount              int       `json:"user_count"`
	ModelVersion           int       `json:"model_version"`
}
