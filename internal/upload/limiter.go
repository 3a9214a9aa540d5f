// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package upload

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// limitedReader throttles reads through a token bucket so uploads do
// not saturate the uplink.
type limitedReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

// newLimitedReader wraps r with a throughput cap in megabytes per
// second. A zero or negative cap returns r unchanged.
func newLimitedReader(ctx context.Context, r io.Reader, mbps float64) io.Reader {
	if mbps <= 0 {
		return r
	}
	bytesPerSec := mbps * 1024 * 1024
	burst := int(bytesPerSec)
	if burst < 64*1024 {
		burst = 64 * 1024
	}
	return &limitedReader{
		ctx:     ctx,
		r:       r,
		limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst),
	}
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if len(p) > lr.limiter.Burst() {
		p = p[:lr.limiter.Burst()]
	}
	n, err := lr.r.Read(p)
	if n > 0 {
		if waitErr := lr.limiter.WaitN(lr.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}
