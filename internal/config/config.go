// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

// Package config loads and validates CineLens configuration.
//
// Configuration is layered via Koanf v2 (highest priority wins):
//   - Environment variables (CINELENS_ prefix, "__" for nesting)
//   - Config file (config.yaml)
//   - Built-in defaults
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for all CineLens components.
type Config struct {
	Data      DataConfig      `koanf:"data"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Database  DatabaseConfig  `koanf:"database"`
	Recommend RecommendConfig `koanf:"recommend"`
	Server    ServerConfig    `koanf:"server"`
	Upload    UploadConfig    `koanf:"upload"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DataConfig locates the MovieLens dataset directories.
type DataConfig struct {
	// RawDir holds the downloaded, unprocessed dataset archives.
	RawDir string `koanf:"raw_dir"`

	// ProcessedDir receives pipeline output files.
	ProcessedDir string `koanf:"processed_dir"`

	// Dataset is the dataset subdirectory name (e.g. ml-100k, ml-25m).
	Dataset string `koanf:"dataset"`
}

// PipelineConfig controls the CSV processing stages.
type PipelineConfig struct {
	// Column names in the ratings CSV header.
	UserColumn      string `koanf:"user_column"`
	ItemColumn      string `koanf:"item_column"`
	RatingColumn    string `koanf:"rating_column"`
	TimestampColumn string `koanf:"timestamp_column"`

	// GenresColumn is the pipe-separated genre column in movies.csv.
	GenresColumn string `koanf:"genres_column"`

	// MinRatings is the minimum rating count for a user to survive
	// the activity filter.
	MinRatings int `koanf:"min_ratings"`

	// KeepOrder makes dedup output deterministic, ordered by the kept
	// row's timestamp ascending.
	KeepOrder bool `koanf:"keep_order"`

	// SortGenres orders one-hot genre columns alphabetically instead
	// of the canonical MovieLens order.
	SortGenres bool `koanf:"sort_genres"`

	// ProgressEvery emits a progress log line every N rows. Zero
	// disables periodic progress logging.
	ProgressEvery int `koanf:"progress_every"`

	// ProgressPath is the BadgerDB directory for persisted stage
	// stats. Empty keeps progress in memory only.
	ProgressPath string `koanf:"progress_path"`
}

// DatabaseConfig tunes the DuckDB store.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" opens an
	// in-memory database.
	Path string `koanf:"path"`

	// MaxMemory is the DuckDB memory limit (e.g. "2GB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. Zero uses runtime.NumCPU().
	Threads int `koanf:"threads"`

	// PreserveInsertionOrder trades memory for stable result order.
	PreserveInsertionOrder bool `koanf:"preserve_insertion_order"`
}

// RecommendConfig configures the hybrid recommendation engine.
type RecommendConfig struct {
	Weights  WeightsConfig  `koanf:"weights"`
	ItemCF   ItemCFConfig   `koanf:"itemcf"`
	CoVisit  CoVisitConfig  `koanf:"covisit"`
	Content  ContentConfig  `koanf:"content"`
	Training TrainingConfig `koanf:"training"`
	Limits   LimitsConfig   `koanf:"limits"`
	Cache    CacheConfig    `koanf:"cache"`
}

// WeightsConfig sets the relative blend weight of each algorithm.
// Weights are normalized at runtime and need not sum to 1.0.
type WeightsConfig struct {
	Popularity float64 `koanf:"popularity"`
	ItemCF     float64 `koanf:"itemcf"`
	CoVisit    float64 `koanf:"covisit"`
	Content    float64 `koanf:"content"`
}

// ItemCFConfig tunes item-based collaborative filtering.
type ItemCFConfig struct {
	// K is the neighbor list size per item.
	K int `koanf:"k"`

	// Shrinkage regularizes similarities computed from few co-raters.
	Shrinkage float64 `koanf:"shrinkage"`

	// MinCommonUsers is the minimum co-rater count for a valid
	// similarity.
	MinCommonUsers int `koanf:"min_common_users"`
}

// CoVisitConfig tunes co-visitation counting.
type CoVisitConfig struct {
	// WindowHours bounds the rating-time gap for a co-visit pair.
	WindowHours int `koanf:"window_hours"`

	// MinCoOccurrence drops pairs seen fewer times than this.
	MinCoOccurrence int `koanf:"min_co_occurrence"`

	// MaxPairs caps the stored pair count.
	MaxPairs int `koanf:"max_pairs"`
}

// ContentConfig tunes genre-based content filtering.
type ContentConfig struct {
	// PositiveThreshold is the minimum rating for a movie to count
	// toward a user's genre profile.
	PositiveThreshold float64 `koanf:"positive_threshold"`
}

// TrainingConfig controls the model training lifecycle in serve mode.
type TrainingConfig struct {
	// OnStartup trains all algorithms before the API starts serving.
	OnStartup bool `koanf:"on_startup"`

	// Interval is the periodic retrain interval.
	Interval time.Duration `koanf:"interval"`

	// MinInteractions skips training when the store holds fewer
	// interactions than this.
	MinInteractions int `koanf:"min_interactions"`
}

// LimitsConfig bounds recommendation requests.
type LimitsConfig struct {
	// DefaultK is the result count when the request omits k.
	DefaultK int `koanf:"default_k"`

	// MaxK caps the requested result count.
	MaxK int `koanf:"max_k"`

	// MaxCandidates caps the candidate set scored per request.
	MaxCandidates int `koanf:"max_candidates"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	TTL        time.Duration `koanf:"ttl"`
	MaxEntries int           `koanf:"max_entries"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// ListenAddr is the bind address (host:port).
	ListenAddr string `koanf:"listen_addr"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is requests per client IP per RateWindow. Zero
	// disables limiting.
	RateLimit  int           `koanf:"rate_limit"`
	RateWindow time.Duration `koanf:"rate_window"`

	// CORSAllowedOrigins lists origins allowed to call the API from a
	// browser. Empty disables cross-origin access.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// UploadConfig configures S3 artifact uploads.
type UploadConfig struct {
	Bucket string `koanf:"bucket"`
	Region string `koanf:"region"`

	// KeyPrefix is prepended to uploaded object keys.
	KeyPrefix string `koanf:"key_prefix"`

	// RateLimitMBps caps upload throughput in megabytes per second.
	// Zero means unlimited.
	RateLimitMBps float64 `koanf:"rate_limit_mbps"`
}

// LoggingConfig configures the zerolog backend.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Default returns a Config with all defaults applied. These are
// overridden by the config file and environment variables in turn.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			RawDir:       "movie-engine-data/raw",
			ProcessedDir: "movie-engine-data/processed",
			Dataset:      "ml-100k",
		},
		Pipeline: PipelineConfig{
			UserColumn:      "userId",
			ItemColumn:      "movieId",
			RatingColumn:    "rating",
			TimestampColumn: "timestamp",
			GenresColumn:    "genres",
			MinRatings:      30,
			KeepOrder:       false,
			SortGenres:      false,
			ProgressEvery:   100000,
			ProgressPath:    "",
		},
		Database: DatabaseConfig{
			Path:                   "movie-engine-data/cinelens.duckdb",
			MaxMemory:              "2GB",
			Threads:                0,
			PreserveInsertionOrder: true,
		},
		Recommend: RecommendConfig{
			Weights: WeightsConfig{
				Popularity: 0.15,
				ItemCF:     0.45,
				CoVisit:    0.20,
				Content:    0.20,
			},
			ItemCF: ItemCFConfig{
				K:              50,
				Shrinkage:      100,
				MinCommonUsers: 3,
			},
			CoVisit: CoVisitConfig{
				WindowHours:     24,
				MinCoOccurrence: 2,
				MaxPairs:        500000,
			},
			Content: ContentConfig{
				PositiveThreshold: 3.5,
			},
			Training: TrainingConfig{
				OnStartup:       true,
				Interval:        24 * time.Hour,
				MinInteractions: 100,
			},
			Limits: LimitsConfig{
				DefaultK:      10,
				MaxK:          100,
				MaxCandidates: 20000,
			},
			Cache: CacheConfig{
				Enabled:    true,
				TTL:        5 * time.Minute,
				MaxEntries: 10000,
			},
		},
		Server: ServerConfig{
			ListenAddr:      ":8575",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       300,
			RateWindow:      time.Minute,
		},
		Upload: UploadConfig{
			Bucket: "",
			Region: "us-east-1",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks for configuration values that cannot work.
func (c *Config) Validate() error {
	if c.Data.RawDir == "" {
		return fmt.Errorf("data.raw_dir must not be empty")
	}
	if c.Data.ProcessedDir == "" {
		return fmt.Errorf("data.processed_dir must not be empty")
	}
	if c.Data.Dataset == "" {
		return fmt.Errorf("data.dataset must not be empty")
	}
	if c.Pipeline.MinRatings < 1 {
		return fmt.Errorf("pipeline.min_ratings must be >= 1, got %d", c.Pipeline.MinRatings)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Recommend.Limits.DefaultK < 1 {
		return fmt.Errorf("recommend.limits.default_k must be >= 1, got %d", c.Recommend.Limits.DefaultK)
	}
	if c.Recommend.Limits.MaxK < c.Recommend.Limits.DefaultK {
		return fmt.Errorf("recommend.limits.max_k (%d) must be >= default_k (%d)",
			c.Recommend.Limits.MaxK, c.Recommend.Limits.DefaultK)
	}
	if c.Recommend.ItemCF.K < 1 {
		return fmt.Errorf("recommend.itemcf.k must be >= 1, got %d", c.Recommend.ItemCF.K)
	}
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr must not be empty")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must be >= 0, got %d", c.Server.RateLimit)
	}
	return nil
}
