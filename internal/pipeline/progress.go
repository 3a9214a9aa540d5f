// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Tracker persists per-stage stats so an operator can inspect the last
// run of each stage after the process exits.
type Tracker interface {
	// Save persists the stats for their stage.
	Save(ctx context.Context, stats *Stats) error

	// Load retrieves the last saved stats for a stage.
	// Returns nil, nil when none have been saved.
	Load(ctx context.Context, stage string) (*Stats, error)

	// Clear removes saved stats for a stage.
	Clear(ctx context.Context, stage string) error
}

// progressKey builds the BadgerDB key for a stage.
func progressKey(stage string) []byte {
	return []byte("pipeline:" + stage + ":stats")
}

// BadgerTracker implements Tracker on BadgerDB so stage stats survive
// process restarts.
type BadgerTracker struct {
	db *badger.DB
}

// OpenBadgerTracker opens (or creates) a BadgerDB at dir and returns a
// tracker backed by it.
func OpenBadgerTracker(dir string) (*BadgerTracker, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open progress store %s: %w", dir, err)
	}
	return &BadgerTracker{db: db}, nil
}

// NewBadgerTracker wraps an existing BadgerDB instance.
func NewBadgerTracker(db *badger.DB) *BadgerTracker {
	return &BadgerTracker{db: db}
}

// Save persists the stats under the stage key.
func (t *BadgerTracker) Save(_ context.Context, stats *Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Set(progressKey(stats.Stage), data)
	})
}

// Load retrieves the last saved stats for a stage.
func (t *BadgerTracker) Load(_ context.Context, stage string) (*Stats, error) {
	var stats Stats
	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(progressKey(stage))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stats)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load stats for %s: %w", stage, err)
	}
	if stats.StartTime.IsZero() {
		return nil, nil
	}
	return &stats, nil
}

// Clear removes the saved stats for a stage.
func (t *BadgerTracker) Clear(_ context.Context, stage string) error {
	return t.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(progressKey(stage))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Close closes the underlying BadgerDB.
func (t *BadgerTracker) Close() error {
	return t.db.Close()
}

// MemoryTracker implements Tracker in memory for tests and for runs
// without a configured progress path.
type MemoryTracker struct {
	mu    sync.Mutex
	stats map[string]Stats
}

// NewMemoryTracker creates an empty in-memory tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{stats: make(map[string]Stats)}
}

// Save stores a copy of the stats.
func (t *MemoryTracker) Save(_ context.Context, stats *Stats) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats[stats.Stage] = *stats
	return nil
}

// Load returns a copy of the stored stats, or nil.
func (t *MemoryTracker) Load(_ context.Context, stage string) (*Stats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.stats[stage]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// Clear removes the stored stats for a stage.
func (t *MemoryTracker) Clear(_ context.Context, stage string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.stats, stage)
	return nil
}
