// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package recommend

import (
	"fmt"
	"sync"
	"time"
)

// responseCache is a TTL cache for recommendation responses. When the
// entry cap is reached the whole cache is flushed; entries are cheap
// to recompute and a flush keeps eviction trivial and predictable.
type responseCache struct {
	mu         sync.RWMutex
	entries    map[string]cacheEntry
	ttl        time.Duration
	maxEntries int
}

type cacheEntry struct {
	resp    *Response
	expires time.Time
}

func newResponseCache(ttl time.Duration, maxEntries int) *responseCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	return &responseCache{
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// cacheKey builds the lookup key for a request. RequestID is excluded:
// identical queries share an entry.
func cacheKey(req Request) string {
	return fmt.Sprintf("%s:%d:%d:%d", req.Mode, req.UserID, req.MovieID, req.K)
}

// get returns a cached response, or nil when absent or expired.
func (c *responseCache) get(key string) *Response {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil
	}
	if time.Now().After(entry.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil
	}
	return entry.resp
}

// put stores a response.
func (c *responseCache) put(key string, resp *Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		c.entries = make(map[string]cacheEntry)
	}
	c.entries[key] = cacheEntry{resp: resp, expires: time.Now().Add(c.ttl)}
}

// flush drops all entries. Called after retraining so stale rankings
// never outlive the model that produced them.
func (c *responseCache) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// len returns the current entry count.
func (c *responseCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
