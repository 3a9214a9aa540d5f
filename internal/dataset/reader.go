// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNoHeader is returned when the input CSV is empty.
var ErrNoHeader = errors.New("input CSV has no header")

// Reader streams records from a headered CSV file.
type Reader struct {
	file   *os.File
	csv    *csv.Reader
	header []string
	index  map[string]int
}

// Open opens a CSV file and reads its header.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	cr := csv.NewReader(f)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNoHeader)
	}
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	return &Reader{file: f, csv: cr, header: header, index: index}, nil
}

// Header returns the column names in file order.
func (r *Reader) Header() []string {
	out := make([]string, len(r.header))
	copy(out, r.header)
	return out
}

// Column returns the index of the named column.
func (r *Reader) Column(name string) (int, error) {
	i, ok := r.index[name]
	if !ok {
		return 0, fmt.Errorf("column %q not found in header %v", name, r.header)
	}
	return i, nil
}

// RequireColumns verifies that every named column exists.
func (r *Reader) RequireColumns(names ...string) error {
	for _, name := range names {
		if _, err := r.Column(name); err != nil {
			return err
		}
	}
	return nil
}

// Read returns the next record. io.EOF signals the end of input.
func (r *Reader) Read() ([]string, error) {
	return r.csv.Read()
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Field returns the record field at the given column index, or the
// empty string when the record is short.
func Field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}
