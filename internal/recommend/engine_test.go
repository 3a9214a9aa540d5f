// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinelens/cinelens/internal/config"
)

// stubAlgorithm is a canned-score Algorithm for engine tests.
type stubAlgorithm struct {
	name          string
	trained       bool
	trainErr      error
	scores        map[int]float64
	similarScores map[int]float64
	trainCalls    int
}

func (s *stubAlgorithm) Name() string { return s.name }

func (s *stubAlgorithm) Train(_ context.Context, _ []Interaction, _ []Item) error {
	s.trainCalls++
	if s.trainErr != nil {
		return s.trainErr
	}
	s.trained = true
	return nil
}

func (s *stubAlgorithm) Predict(_ context.Context, _ int, candidates []int) (map[int]float64, error) {
	return filterStub(s.scores, candidates), nil
}

func (s *stubAlgorithm) PredictSimilar(_ context.Context, _ int, candidates []int) (map[int]float64, error) {
	return filterStub(s.similarScores, candidates), nil
}

func (s *stubAlgorithm) IsTrained() bool          { return s.trained }
func (s *stubAlgorithm) Version() int             { return 1 }
func (s *stubAlgorithm) LastTrainedAt() time.Time { return time.Time{} }

func filterStub(scores map[int]float64, candidates []int) map[int]float64 {
	out := make(map[int]float64)
	for _, id := range candidates {
		if v, ok := scores[id]; ok {
			out[id] = v
		}
	}
	return out
}

// stubProvider is a canned DataProvider.
type stubProvider struct {
	interactions []Interaction
	items        []Item
	history      map[int][]int
	candidates   []int
	trainErr     error
}

func (s *stubProvider) TrainingData(_ context.Context) ([]Interaction, []Item, error) {
	if s.trainErr != nil {
		return nil, nil, s.trainErr
	}
	return s.interactions, s.items, nil
}

func (s *stubProvider) UserHistory(_ context.Context, userID int) ([]int, error) {
	return s.history[userID], nil
}

func (s *stubProvider) Candidates(_ context.Context, limit int) ([]int, error) {
	if limit > 0 && len(s.candidates) > limit {
		return s.candidates[:limit], nil
	}
	return s.candidates, nil
}

func testRecommendConfig() config.RecommendConfig {
	cfg := config.Default().Recommend
	cfg.Training.MinInteractions = 1
	cfg.Cache.Enabled = false
	return cfg
}

func testProvider() *stubProvider {
	return &stubProvider{
		interactions: []Interaction{
			{UserID: 1, MovieID: 10, Rating: 5.0, Confidence: 1.0},
			{UserID: 2, MovieID: 20, Rating: 4.0, Confidence: 1.0},
		},
		items: []Item{
			{ID: 10, Title: "Heat (1995)"},
			{ID: 20, Title: "Casino (1995)"},
			{ID: 30, Title: "Babe (1995)"},
		},
		history:    map[int][]int{1: {10}},
		candidates: []int{10, 20, 30},
	}
}

func TestEngine_Train(t *testing.T) {
	eng := NewEngine(testRecommendConfig(), zerolog.Nop())
	alg := &stubAlgorithm{name: AlgPopularity}
	eng.RegisterAlgorithm(alg)
	eng.SetDataProvider(testProvider())

	if err := eng.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if alg.trainCalls != 1 {
		t.Errorf("trainCalls = %d, want 1", alg.trainCalls)
	}

	status := eng.Status()
	if status.ModelVersion != 1 {
		t.Errorf("ModelVersion = %d, want 1", status.ModelVersion)
	}
	if status.InteractionCount != 2 {
		t.Errorf("InteractionCount = %d, want 2", status.InteractionCount)
	}
	if status.UserCount != 2 {
		t.Errorf("UserCount = %d, want 2", status.UserCount)
	}
	if status.ItemCount != 3 {
		t.Errorf("ItemCount = %d, want 3", status.ItemCount)
	}
	if status.IsTraining {
		t.Error("IsTraining = true after Train() returned")
	}
}

func TestEngine_TrainErrors(t *testing.T) {
	t.Run("no provider", func(t *testing.T) {
		eng := NewEngine(testRecommendConfig(), zerolog.Nop())
		if err := eng.Train(context.Background()); !errors.Is(err, ErrNoProvider) {
			t.Errorf("Train() error = %v, want ErrNoProvider", err)
		}
	})

	t.Run("too few interactions", func(t *testing.T) {
		cfg := testRecommendConfig()
		cfg.Training.MinInteractions = 100
		eng := NewEngine(cfg, zerolog.Nop())
		eng.SetDataProvider(testProvider())
		if err := eng.Train(context.Background()); !errors.Is(err, ErrNotTrained) {
			t.Errorf("Train() error = %v, want ErrNotTrained", err)
		}
		if eng.Status().ModelVersion != 0 {
			t.Error("skipped training bumped the model version")
		}
	})

	t.Run("algorithm failure surfaces", func(t *testing.T) {
		eng := NewEngine(testRecommendConfig(), zerolog.Nop())
		eng.SetDataProvider(testProvider())
		eng.RegisterAlgorithm(&stubAlgorithm{name: AlgItemCF, trainErr: errors.New("boom")})
		err := eng.Train(context.Background())
		if err == nil {
			t.Fatal("Train() error = nil, want failure")
		}
		if eng.Status().LastError == "" {
			t.Error("LastError empty after failed training")
		}
	})

	t.Run("provider failure surfaces", func(t *testing.T) {
		eng := NewEngine(testRecommendConfig(), zerolog.Nop())
		eng.SetDataProvider(&stubProvider{trainErr: errors.New("db gone")})
		if err := eng.Train(context.Background()); err == nil {
			t.Fatal("Train() error = nil, want failure")
		}
	})
}

func TestEngine_RecommendPersonalized(t *testing.T) {
	eng := NewEngine(testRecommendConfig(), zerolog.Nop())
	eng.RegisterAlgorithm(&stubAlgorithm{
		name:   AlgItemCF,
		scores: map[int]float64{10: 0.9, 20: 0.8, 30: 0.3},
	})
	eng.SetDataProvider(testProvider())
	if err := eng.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	resp, err := eng.Recommend(context.Background(), Request{UserID: 1, Mode: ModePersonalized, K: 5})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	// Movie 10 is in user 1's history and must be excluded.
	for _, item := range resp.Items {
		if item.Item.ID == 10 {
			t.Error("Recommend() returned a movie from the user's history")
		}
	}
	if len(resp.Items) != 2 {
		t.Fatalf("Recommend() returned %d items, want 2", len(resp.Items))
	}
	if resp.Items[0].Item.ID != 20 {
		t.Errorf("top item = %d, want 20 (highest score)", resp.Items[0].Item.ID)
	}
	if resp.Items[0].Item.Title != "Casino (1995)" {
		t.Errorf("top item title = %q, want metadata filled in", resp.Items[0].Item.Title)
	}
	if resp.Metadata.Mode != "personalized" {
		t.Errorf("Metadata.Mode = %q, want personalized", resp.Metadata.Mode)
	}
}

func TestEngine_RecommendNotTrained(t *testing.T) {
	eng := NewEngine(testRecommendConfig(), zerolog.Nop())
	eng.RegisterAlgorithm(&stubAlgorithm{name: AlgPopularity})
	eng.SetDataProvider(testProvider())

	if _, err := eng.Recommend(context.Background(), Request{UserID: 1}); !errors.Is(err, ErrNotTrained) {
		t.Errorf("Recommend() error = %v, want ErrNotTrained", err)
	}
}

func TestEngine_RecommendSimilar(t *testing.T) {
	eng := NewEngine(testRecommendConfig(), zerolog.Nop())
	eng.RegisterAlgorithm(&stubAlgorithm{
		name:          AlgItemCF,
		similarScores: map[int]float64{10: 0.9, 20: 0.7},
	})
	eng.SetDataProvider(testProvider())
	if err := eng.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	resp, err := eng.Recommend(context.Background(), Request{MovieID: 10, Mode: ModeSimilar, K: 5})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for _, item := range resp.Items {
		if item.Item.ID == 10 {
			t.Error("Recommend() returned the anchor movie")
		}
	}
	if len(resp.Items) != 1 || resp.Items[0].Item.ID != 20 {
		t.Errorf("items = %+v, want just movie 20", resp.Items)
	}
}

func TestEngine_RecommendPopular(t *testing.T) {
	eng := NewEngine(testRecommendConfig(), zerolog.Nop())
	eng.RegisterAlgorithm(&stubAlgorithm{
		name:   AlgPopularity,
		scores: map[int]float64{10: 1.0, 20: 0.5, 30: 0.1},
	})
	// A second algorithm must not contribute in popular mode.
	eng.RegisterAlgorithm(&stubAlgorithm{
		name:   AlgContent,
		scores: map[int]float64{30: 1.0},
	})
	eng.SetDataProvider(testProvider())
	if err := eng.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	resp, err := eng.Recommend(context.Background(), Request{Mode: ModePopular, K: 2})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("Recommend() returned %d items, want 2 (k cap)", len(resp.Items))
	}
	if resp.Items[0].Item.ID != 10 || resp.Items[1].Item.ID != 20 {
		t.Errorf("items = %+v, want popularity order 10, 20", resp.Items)
	}
}

func TestEngine_RecommendFallbackToPopularity(t *testing.T) {
	eng := NewEngine(testRecommendConfig(), zerolog.Nop())
	// ItemCF knows nothing about this user; popularity has a zero
	// blend weight but still backs the fallback.
	cfg := testRecommendConfig()
	cfg.Weights = config.WeightsConfig{ItemCF: 1.0}
	eng = NewEngine(cfg, zerolog.Nop())
	eng.RegisterAlgorithm(&stubAlgorithm{name: AlgItemCF})
	eng.RegisterAlgorithm(&stubAlgorithm{
		name:   AlgPopularity,
		scores: map[int]float64{20: 0.8, 30: 0.4},
	})
	eng.SetDataProvider(testProvider())
	if err := eng.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	resp, err := eng.Recommend(context.Background(), Request{UserID: 777, Mode: ModePersonalized, K: 5})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("fallback returned %d items, want 2", len(resp.Items))
	}
	if resp.Items[0].Item.ID != 20 {
		t.Errorf("fallback top item = %d, want 20", resp.Items[0].Item.ID)
	}
}

func TestEngine_RecommendKDefaults(t *testing.T) {
	cfg := testRecommendConfig()
	cfg.Limits.DefaultK = 1
	cfg.Limits.MaxK = 2

	eng := NewEngine(cfg, zerolog.Nop())
	eng.RegisterAlgorithm(&stubAlgorithm{
		name:   AlgPopularity,
		scores: map[int]float64{10: 1.0, 20: 0.5, 30: 0.1},
	})
	eng.SetDataProvider(testProvider())
	if err := eng.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	resp, err := eng.Recommend(context.Background(), Request{Mode: ModePopular})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Items) != 1 {
		t.Errorf("k=0 returned %d items, want DefaultK 1", len(resp.Items))
	}

	resp, err = eng.Recommend(context.Background(), Request{Mode: ModePopular, K: 100})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Items) != 2 {
		t.Errorf("k=100 returned %d items, want MaxK cap 2", len(resp.Items))
	}
}

func TestEngine_RecommendCache(t *testing.T) {
	cfg := testRecommendConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.TTL = time.Minute

	eng := NewEngine(cfg, zerolog.Nop())
	eng.RegisterAlgorithm(&stubAlgorithm{
		name:   AlgPopularity,
		scores: map[int]float64{10: 1.0, 20: 0.5},
	})
	eng.SetDataProvider(testProvider())
	if err := eng.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	req := Request{Mode: ModePopular, K: 5}
	first, err := eng.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if first.Metadata.CacheHit {
		t.Error("first request reported a cache hit")
	}

	second, err := eng.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !second.Metadata.CacheHit {
		t.Error("second request missed the cache")
	}

	// Retraining flushes the cache.
	if err := eng.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	third, err := eng.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if third.Metadata.CacheHit {
		t.Error("cache survived retraining")
	}
}

func TestNormalizeWeights(t *testing.T) {
	tests := []struct {
		name string
		in   config.WeightsConfig
		want map[string]float64
	}{
		{
			name: "already normalized",
			in:   config.WeightsConfig{Popularity: 0.25, ItemCF: 0.25, CoVisit: 0.25, Content: 0.25},
			want: map[string]float64{AlgPopularity: 0.25, AlgItemCF: 0.25, AlgCoVisit: 0.25, AlgContent: 0.25},
		},
		{
			name: "scales to unit sum",
			in:   config.WeightsConfig{Popularity: 1, ItemCF: 3},
			want: map[string]float64{AlgPopularity: 0.25, AlgItemCF: 0.75, AlgCoVisit: 0, AlgContent: 0},
		},
		{
			name: "all zero becomes equal",
			in:   config.WeightsConfig{},
			want: map[string]float64{AlgPopularity: 0.25, AlgItemCF: 0.25, AlgCoVisit: 0.25, AlgContent: 0.25},
		},
		{
			name: "negative clamped to zero",
			in:   config.WeightsConfig{Popularity: -5, ItemCF: 1},
			want: map[string]float64{AlgPopularity: 0, AlgItemCF: 1, AlgCoVisit: 0, AlgContent: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeWeights(tt.in)
			for name, want := range tt.want {
				if diff := got[name] - want; diff > 1e-9 || diff < -1e-9 {
					t.Errorf("weight[%s] = %v, want %v", name, got[name], want)
				}
			}
		})
	}
}

func TestResponseCache(t *testing.T) {
	c := newResponseCache(time.Minute, 2)

	key := cacheKey(Request{Mode: ModePopular, K: 10})
	if got := c.get(key); got != nil {
		t.Errorf("get() on empty cache = %v, want nil", got)
	}

	resp := &Response{}
	c.put(key, resp)
	if got := c.get(key); got != resp {
		t.Error("get() did not return the cached response")
	}

	// Filling past the cap flushes everything.
	c.put(cacheKey(Request{Mode: ModePopular, K: 20}), resp)
	c.put(cacheKey(Request{Mode: ModePopular, K: 30}), resp)
	if c.len() != 1 {
		t.Errorf("len() = %d after overflow, want 1", c.len())
	}

	c.flush()
	if c.len() != 0 {
		t.Errorf("len() = %d after flush, want 0", c.len())
	}
}

func TestResponseCache_TTL(t *testing.T) {
	c := newResponseCache(time.Nanosecond, 10)
	key := cacheKey(Request{UserID: 1})
	c.put(key, &Response{})
	time.Sleep(time.Millisecond)
	if got := c.get(key); got != nil {
		t.Error("get() returned an expired entry")
	}
}

func TestConfidenceFromRating(t *testing.T) {
	tests := []struct {
		rating float64
		want   float64
	}{
		{5.0, 1.0},
		{4.0, 1.0},
		{3.5, 0.6},
		{3.0, 0.6},
		{2.5, 0.2},
		{0.5, 0.2},
	}

	for _, tt := range tests {
		if got := ConfidenceFromRating(tt.rating); got != tt.want {
			t.Errorf("ConfidenceFromRating(%v) = %v, want %v", tt.rating, got, tt.want)
		}
	}
}
