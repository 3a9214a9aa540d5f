// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cinelens/cinelens/internal/config"
	"github.com/cinelens/cinelens/internal/metrics"
)

// Engine errors surfaced to the API layer.
var (
	// ErrNotTrained is returned when no registered algorithm has been
	// trained yet.
	ErrNotTrained = errors.New("recommendation engine not trained")

	// ErrNoProvider is returned when the engine has no data provider.
	ErrNoProvider = errors.New("no data provider configured")

	// ErrTrainingInProgress is returned when Train is called while a
	// training run is active.
	ErrTrainingInProgress = errors.New("training already in progress")
)

// Engine blends scores from registered algorithms into rankings.
type Engine struct {
	cfg     config.RecommendConfig
	logger  zerolog.Logger
	weights map[string]float64
	cache   *responseCache

	mu         sync.RWMutex
	algorithms []Algorithm
	provider   DataProvider
	items      map[int]Item
	version    int
	training   bool
	status     TrainingStatus
}

// NewEngine creates an engine with the given configuration.
func NewEngine(cfg config.RecommendConfig, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		logger:  logger.With().Str("component", "recommend").Logger(),
		weights: NormalizeWeights(cfg.Weights),
		cache:   newResponseCache(cfg.Cache.TTL, cfg.Cache.MaxEntries),
		items:   make(map[int]Item),
	}
}

// SetDataProvider wires the training and candidate data source.
func (e *Engine) SetDataProvider(dp DataProvider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.provider = dp
}

// RegisterAlgorithm adds an algorithm to the blend.
func (e *Engine) RegisterAlgorithm(alg Algorithm) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.algorithms = append(e.algorithms, alg)
	e.logger.Info().Str("algorithm", alg.Name()).Msg("algorithm registered")
}

// Status returns a snapshot of the training state.
func (e *Engine) Status() TrainingStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	status := e.status
	status.IsTraining = e.training
	status.ModelVersion = e.version
	return status
}

// Train loads training data and fits all registered algorithms
// concurrently. The response cache is flushed on success.
func (e *Engine) Train(ctx context.Context) error {
	e.mu.Lock()
	if e.training {
		e.mu.Unlock()
		return ErrTrainingInProgress
	}
	if e.provider == nil {
		e.mu.Unlock()
		return ErrNoProvider
	}
	e.training = true
	provider := e.provider
	algorithms := make([]Algorithm, len(e.algorithms))
	copy(algorithms, e.algorithms)
	e.mu.Unlock()

	start := time.Now()
	err := e.train(ctx, provider, algorithms, start)

	e.mu.Lock()
	e.training = false
	e.status.LastTrainingDurationMS = time.Since(start).Milliseconds()
	if err != nil {
		e.status.LastError = err.Error()
	} else {
		e.status.LastError = ""
		e.status.LastTrainedAt = time.Now()
		e.version++
	}
	e.mu.Unlock()

	if err == nil {
		e.cache.flush()
	}
	return err
}

func (e *Engine) train(ctx context.Context, provider DataProvider, algorithms []Algorithm, start time.Time) error {
	interactions, items, err := provider.TrainingData(ctx)
	if err != nil {
		return fmt.Errorf("load training data: %w", err)
	}

	if len(interactions) < e.cfg.Training.MinInteractions {
		e.logger.Warn().
			Int("interactions", len(interactions)).
			Int("min", e.cfg.Training.MinInteractions).
			Msg("not enough interactions, skipping training")
		return fmt.Errorf("%w: %d interactions below minimum %d",
			ErrNotTrained, len(interactions), e.cfg.Training.MinInteractions)
	}

	users := make(map[int]struct{})
	for i := range interactions {
		users[interactions[i].UserID] = struct{}{}
	}

	e.logger.Info().
		Int("interactions", len(interactions)).
		Int("items", len(items)).
		Int("users", len(users)).
		Msg("training started")

	g, gctx := errgroup.WithContext(ctx)
	for _, alg := range algorithms {
		g.Go(func() error {
			algStart := time.Now()
			err := alg.Train(gctx, interactions, items)
			metrics.TrainingCompleted(alg.Name(), time.Since(algStart), err)
			if err != nil {
				return fmt.Errorf("train %s: %w", alg.Name(), err)
			}
			e.logger.Info().
				Str("algorithm", alg.Name()).
				Dur("duration", time.Since(algStart)).
				Msg("algorithm trained")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	itemIndex := make(map[int]Item, len(items))
	for i := range items {
		itemIndex[items[i].ID] = items[i]
	}

	e.mu.Lock()
	e.items = itemIndex
	e.status.InteractionCount = len(interactions)
	e.status.ItemCount = len(items)
	e.status.UserCount = len(users)
	e.mu.Unlock()

	e.logger.Info().Dur("duration", time.Since(start)).Msg("training complete")
	return nil
}

// Recommend generates recommendations for the request.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	req = e.prepareRequest(req)
	metrics.RecommendRequests.WithLabelValues(req.Mode.String()).Inc()
	defer func() {
		metrics.RecommendLatency.WithLabelValues(req.Mode.String()).Observe(time.Since(start).Seconds())
	}()

	e.mu.RLock()
	provider := e.provider
	trained := false
	for _, alg := range e.algorithms {
		if alg.IsTrained() {
			trained = true
			break
		}
	}
	e.mu.RUnlock()

	if provider == nil {
		return nil, ErrNoProvider
	}
	if !trained {
		return nil, ErrNotTrained
	}

	if e.cfg.Cache.Enabled {
		if cached := e.cache.get(cacheKey(req)); cached != nil {
			metrics.RecommendCacheHits.Inc()
			resp := *cached
			resp.Metadata.CacheHit = true
			resp.Metadata.RequestID = req.RequestID
			resp.Metadata.DurationMS = time.Since(start).Milliseconds()
			return &resp, nil
		}
		metrics.RecommendCacheMisses.Inc()
	}

	candidates, err := e.gatherCandidates(ctx, provider, req)
	if err != nil {
		return nil, err
	}

	scored, used, err := e.scoreCandidates(ctx, req, candidates)
	if err != nil {
		return nil, err
	}

	if req.K < len(scored) {
		scored = scored[:req.K]
	}

	resp := &Response{
		Items: scored,
		Metadata: Metadata{
			RequestID:      req.RequestID,
			Mode:           req.Mode.String(),
			AlgorithmsUsed: used,
			CandidateCount: len(candidates),
			ModelVersion:   e.Status().ModelVersion,
			GeneratedAt:    time.Now().UTC(),
			DurationMS:     time.Since(start).Milliseconds(),
		},
	}

	if e.cfg.Cache.Enabled {
		e.cache.put(cacheKey(req), resp)
	}
	return resp, nil
}

// prepareRequest applies K defaults and caps.
func (e *Engine) prepareRequest(req Request) Request {
	if req.K <= 0 {
		req.K = e.cfg.Limits.DefaultK
	}
	if e.cfg.Limits.MaxK > 0 && req.K > e.cfg.Limits.MaxK {
		req.K = e.cfg.Limits.MaxK
	}
	return req
}

// gatherCandidates fetches the candidate set and removes movies the
// request must not return: the user's history in personalized mode,
// the anchor movie in similar mode.
func (e *Engine) gatherCandidates(ctx context.Context, provider DataProvider, req Request) ([]int, error) {
	candidates, err := provider.Candidates(ctx, e.cfg.Limits.MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	exclude := make(map[int]struct{})
	switch req.Mode {
	case ModePersonalized:
		history, err := provider.UserHistory(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("load history for user %d: %w", req.UserID, err)
		}
		for _, id := range history {
			exclude[id] = struct{}{}
		}
	case ModeSimilar:
		exclude[req.MovieID] = struct{}{}
	case ModePopular:
		// Nothing to exclude.
	}

	if len(exclude) == 0 {
		return candidates, nil
	}

	filtered := candidates[:0]
	for _, id := range candidates {
		if _, skip := exclude[id]; !skip {
			filtered = append(filtered, id)
		}
	}
	return filtered, nil
}

// scoreCandidates runs the algorithms appropriate to the mode and
// blends their scores.
func (e *Engine) scoreCandidates(ctx context.Context, req Request, candidates []int) ([]ScoredItem, []string, error) {
	e.mu.RLock()
	algorithms := make([]Algorithm, len(e.algorithms))
	copy(algorithms, e.algorithms)
	items := e.items
	e.mu.RUnlock()

	blended := make(map[int]float64)
	perAlg := make(map[int]map[string]float64)
	var used []string

	for _, alg := range algorithms {
		if !alg.IsTrained() {
			continue
		}
		weight := e.weights[alg.Name()]
		if req.Mode == ModePopular {
			// Popular mode is the popularity ranking alone.
			if alg.Name() != AlgPopularity {
				continue
			}
			weight = 1.0
		}
		if weight <= 0 {
			continue
		}

		var scores map[int]float64
		var err error
		if req.Mode == ModeSimilar {
			scores, err = alg.PredictSimilar(ctx, req.MovieID, candidates)
		} else {
			scores, err = alg.Predict(ctx, req.UserID, candidates)
		}
		if err != nil {
			e.logger.Warn().Err(err).Str("algorithm", alg.Name()).Msg("prediction failed, skipping")
			continue
		}
		if len(scores) == 0 {
			continue
		}

		used = append(used, alg.Name())
		for id, score := range scores {
			blended[id] += weight * score
			if perAlg[id] == nil {
				perAlg[id] = make(map[string]float64)
			}
			perAlg[id][alg.Name()] = score
		}
	}

	// Cold start: if the personalized blend produced nothing (unknown
	// user, no overlapping items), fall back to popularity.
	if len(blended) == 0 && req.Mode == ModePersonalized {
		for _, alg := range algorithms {
			if alg.Name() != AlgPopularity || !alg.IsTrained() {
				continue
			}
			scores, err := alg.Predict(ctx, 0, candidates)
			if err != nil || len(scores) == 0 {
				break
			}
			used = append(used, AlgPopularity+" (fallback)")
			for id, score := range scores {
				blended[id] = score
				perAlg[id] = map[string]float64{AlgPopularity: score}
			}
			break
		}
	}

	scored := make([]ScoredItem, 0, len(blended))
	for id, score := range blended {
		item, ok := items[id]
		if !ok {
			item = Item{ID: id}
		}
		scored = append(scored, ScoredItem{
			Item:   item,
			Score:  score,
			Scores: perAlg[id],
			Reason: dominantAlgorithm(perAlg[id], e.weights),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Item.ID < scored[j].Item.ID
	})

	return scored, used, nil
}

// dominantAlgorithm names the algorithm contributing most to a blended
// score.
func dominantAlgorithm(scores map[string]float64, weights map[string]float64) string {
	var best string
	var bestContribution float64
	for name, score := range scores {
		w := weights[name]
		if w == 0 {
			w = 1
		}
		if c := w * score; c > bestContribution {
			bestContribution = c
			best = name
		}
	}
	return best
}
