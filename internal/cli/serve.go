// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package cli

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cinelens/cinelens/internal/api"
	"github.com/cinelens/cinelens/internal/logging"
	"github.com/cinelens/cinelens/internal/recommend"
	"github.com/cinelens/cinelens/internal/recommend/algorithms"
	"github.com/cinelens/cinelens/internal/store"
	"github.com/cinelens/cinelens/internal/supervisor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recommendation API",
	Long: `Serve trains the recommendation models from the store and runs the
HTTP API under a supervision tree. Models retrain on the configured
interval; SIGINT or SIGTERM shuts everything down gracefully.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		db, err := store.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logging.Err(cerr).Msg("closing store")
			}
		}()

		engine := newEngine(db)

		if cfg.Recommend.Training.OnStartup {
			if err := engine.Train(ctx); err != nil {
				if errors.Is(err, recommend.ErrNotTrained) {
					logging.Warn().Err(err).Msg("startup training skipped")
				} else {
					return err
				}
			}
		}

		handler := api.NewHandler(engine, db)
		server := api.NewServer(cfg.Server, api.NewRouter(cfg.Server, handler))

		tree := supervisor.NewTree(slog.New(logging.NewSlogHandler()), supervisor.DefaultTreeConfig())
		tree.AddEngineService(supervisor.NewTrainer(cfg.Recommend.Training, engine))
		tree.AddAPIService(server)

		logging.Info().Str("listen_addr", cfg.Server.ListenAddr).Msg("cinelens serving")
		err = tree.Serve(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// newEngine builds the engine with all four algorithms from config.
func newEngine(db *store.DB) *recommend.Engine {
	engine := recommend.NewEngine(cfg.Recommend, logging.Logger())

	engine.RegisterAlgorithm(algorithms.NewPopularity(algorithms.PopularityConfig{}))
	engine.RegisterAlgorithm(algorithms.NewItemCF(algorithms.ItemCFConfig{
		K:              cfg.Recommend.ItemCF.K,
		Shrinkage:      cfg.Recommend.ItemCF.Shrinkage,
		MinCommonUsers: cfg.Recommend.ItemCF.MinCommonUsers,
	}))
	engine.RegisterAlgorithm(algorithms.NewCoVisitation(algorithms.CoVisitConfig{
		Window:          time.Duration(cfg.Recommend.CoVisit.WindowHours) * time.Hour,
		MinCoOccurrence: cfg.Recommend.CoVisit.MinCoOccurrence,
		MaxPairs:        cfg.Recommend.CoVisit.MaxPairs,
	}))
	engine.RegisterAlgorithm(algorithms.NewContent(algorithms.ContentConfig{
		PositiveThreshold: cfg.Recommend.Content.PositiveThreshold,
	}))

	engine.SetDataProvider(store.NewDataProvider(db))
	return engine
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
