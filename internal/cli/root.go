// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

// Package cli implements the cinelens command tree. Every command
// loads configuration and initializes logging through the shared
// persistent pre-run, so flags only need to cover what differs from
// the config file and environment.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cinelens/cinelens/internal/config"
	"github.com/cinelens/cinelens/internal/logging"
	"github.com/cinelens/cinelens/internal/pipeline"
	"github.com/cinelens/cinelens/internal/upload"
)

// Exit codes for scripting. Verification failures get their own code
// so a wrapper can retry an upload without re-running the pipeline.
const (
	exitOK     = 0
	exitError  = 2
	exitVerify = 3
)

// cfg is populated by the persistent pre-run before any RunE fires.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "cinelens",
	Short: "MovieLens recommendation engine",
	Long: `CineLens processes MovieLens rating datasets and serves hybrid
movie recommendations over HTTP.

The pipeline commands (dedup, filter-users, onehot, run) transform raw
CSV exports into training data. The ingest command loads processed data
into the store, serve runs the recommendation API, and upload ships
processed files to S3.

Configuration comes from cinelens.yaml and CINELENS_* environment
variables; flags override both.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logging.Init(logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Caller: cfg.Logging.Caller,
		})
		return nil
	},
}

// Execute runs the command tree and exits the process with the
// command's exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, upload.ErrVerifyFailed) {
			os.Exit(exitVerify)
		}
		os.Exit(exitError)
	}
	os.Exit(exitOK)
}

// newTracker opens the configured progress store. The caller must
// invoke the returned close function.
func newTracker() (pipeline.Tracker, func(), error) {
	if cfg.Pipeline.ProgressPath == "" {
		return pipeline.NewMemoryTracker(), func() {}, nil
	}
	tracker, err := pipeline.OpenBadgerTracker(cfg.Pipeline.ProgressPath)
	if err != nil {
		return nil, nil, err
	}
	return tracker, func() {
		if cerr := tracker.Close(); cerr != nil {
			logging.Err(cerr).Msg("closing progress store")
		}
	}, nil
}
