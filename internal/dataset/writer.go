// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// Writer writes a headered CSV file atomically: rows accumulate in a
// temp file that replaces the destination only on Commit. A crashed or
// aborted run never leaves a truncated output behind.
type Writer struct {
	pending *renameio.PendingFile
	csv     *csv.Writer
	rows    int
}

// Create opens an atomic CSV writer and writes the header.
func Create(path string, header []string) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	w := &Writer{pending: pending, csv: csv.NewWriter(pending)}
	if err := w.csv.Write(header); err != nil {
		_ = pending.Cleanup()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return w, nil
}

// Write appends one record.
func (w *Writer) Write(record []string) error {
	if err := w.csv.Write(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	w.rows++
	return nil
}

// Rows returns the number of data records written so far.
func (w *Writer) Rows() int {
	return w.rows
}

// Commit flushes buffered rows and atomically replaces the target file.
func (w *Writer) Commit() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		_ = w.pending.Cleanup()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := w.pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace output: %w", err)
	}
	return nil
}

// Abort discards the pending output. Safe to call after Commit.
func (w *Writer) Abort() {
	_ = w.pending.Cleanup()
}
