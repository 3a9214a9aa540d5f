// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package main

import "github.com/cinelens/cinelens/internal/cli"

func main() {
	cli.Execute()
}
