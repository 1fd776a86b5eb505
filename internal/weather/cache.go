// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package weather

import (
	"sync"
	"time"

	"github.com/atmotune/atmotune/internal/engine"
)

// cacheEntry holds the most recent snapshot. Weather moves slowly;
// reusing a snapshot for a few minutes avoids hammering the upstream
// on every queue request.
type cacheEntry struct {
	mu        sync.Mutex
	snapshot  engine.WeatherSnapshot
	fetchedAt time.Time
}

func (c *Client) cached() (engine.WeatherSnapshot, bool) {
	if c.cfg.CacheTTL <= 0 {
		return engine.WeatherSnapshot{}, false
	}
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	if c.cache.fetchedAt.IsZero() || time.Since(c.cache.fetchedAt) > c.cfg.CacheTTL {
		return engine.WeatherSnapshot{}, false
	}
	return c.cache.snapshot, true
}

func (c *Client) store(snap engine.WeatherSnapshot) {
	if c.cfg.CacheTTL <= 0 {
		return
	}
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	c.cache.snapshot = snap
	c.cache.fetchedAt = time.Now()
}
