// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package supervisor

import (
	"context"
	"errors"
	"time"

	"github.com/cinelens/cinelens/internal/config"
	"github.com/cinelens/cinelens/internal/logging"
	"github.com/cinelens/cinelens/internal/recommend"
)

// Trainer retrains the recommendation engine on a fixed interval. A
// failed training run is logged and retried on the next tick rather
// than crashing the service; the previous model keeps serving.
type Trainer struct {
	cfg    config.TrainingConfig
	engine *recommend.Engine
}

// NewTrainer creates a trainer for the engine.
func NewTrainer(cfg config.TrainingConfig, engine *recommend.Engine) *Trainer {
	return &Trainer{cfg: cfg, engine: engine}
}

// Serve implements suture.Service.
func (t *Trainer) Serve(ctx context.Context) error {
	interval := t.cfg.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.train(ctx)
		}
	}
}

func (t *Trainer) train(ctx context.Context) {
	err := t.engine.Train(ctx)
	switch {
	case err == nil:
	case errors.Is(err, recommend.ErrTrainingInProgress):
		logging.Warn().Msg("training tick skipped, previous run still active")
	case errors.Is(err, recommend.ErrNotTrained):
		logging.Warn().Err(err).Msg("training skipped")
	default:
		logging.Err(err).Msg("periodic training failed")
	}
}

// String names the service in supervisor logs.
func (t *Trainer) String() string {
	return "trainer"
}
