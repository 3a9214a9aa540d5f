// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// execute runs the command tree with args, like a shell invocation.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"dedup", "filter-users", "onehot", "run", "ingest", "serve", "upload"}
	for _, name := range want {
		found := false
		for _, cmd := range rootCmd.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestDedupCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "ratings.csv")
	output := filepath.Join(dir, "ratings_dedup.csv")

	csv := "userId,movieId,rating,timestamp\n" +
		"1,10,4.0,100\n" +
		"1,10,3.0,200\n" +
		"2,20,5.0,150\n"
	if err := os.WriteFile(input, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "dedup", "--input", input, "--output", output); err != nil {
		t.Fatalf("dedup failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.Contains(string(data), "1,10,3.0,200") {
		t.Errorf("newest duplicate not kept:\n%s", data)
	}
}

func TestFilterUsersCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "ratings.csv")
	output := filepath.Join(dir, "filtered.csv")

	csv := "userId,movieId,rating,timestamp\n" +
		"1,10,4.0,100\n" +
		"1,20,3.0,200\n" +
		"2,30,5.0,150\n"
	if err := os.WriteFile(input, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "filter-users", "--input", input, "--output", output, "--threshold", "2"); err != nil {
		t.Fatalf("filter-users failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "2,30") {
		t.Errorf("low-activity user not dropped:\n%s", data)
	}
	if !strings.Contains(string(data), "1,10") {
		t.Errorf("active user dropped:\n%s", data)
	}
}

func TestOnehotCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "movies.csv")
	output := filepath.Join(dir, "movies_onehot.csv")

	csv := "movieId,title,genres\n" +
		"1,Heat (1995),Action|Crime\n"
	if err := os.WriteFile(input, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := execute(t, "onehot", "--input", input, "--output", output); err != nil {
		t.Fatalf("onehot failed: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	header := strings.SplitN(string(data), "\n", 2)[0]
	hasFlag := false
	for _, col := range strings.Split(header, ",") {
		if col == "genres" {
			t.Errorf("genres column not replaced: %s", header)
		}
		if col == "Action" {
			hasFlag = true
		}
	}
	if !hasFlag {
		t.Errorf("genre flag column missing: %s", header)
	}
}

func TestDedupRequiresFlags(t *testing.T) {
	if err := execute(t, "dedup"); err == nil {
		t.Fatal("expected error for missing required flags")
	}
}

func TestFlagOrConfig(t *testing.T) {
	cmd := dedupCmd
	if err := cmd.Flags().Set("user-col", "uid"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = cmd.Flags().Set("user-col", "")
	})
	if got := flagOrConfig(cmd, "user-col", "userId"); got != "uid" {
		t.Errorf("flagOrConfig = %q, want uid", got)
	}
	if got := flagOrConfig(cmd, "rating-col", "rating"); got != "rating" {
		t.Errorf("flagOrConfig fallback = %q, want rating", got)
	}
}
