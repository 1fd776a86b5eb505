// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/atmotune/atmotune/internal/metrics"
)

// MaintainedStore is the store surface the maintenance loops need.
// *store.Store satisfies it.
type MaintainedStore interface {
	Count(ctx context.Context) (int, error)
	CleanupStale(ctx context.Context, ttl time.Duration) (int, error)
	RunGC() error
}

// CleanupService periodically drops listener records that have not
// been touched within the TTL and refreshes the listener gauge.
type CleanupService struct {
	store    MaintainedStore
	ttl      time.Duration
	interval time.Duration
	logger   zerolog.Logger
}

// NewCleanupService creates the stale-listener cleanup loop.
func NewCleanupService(store MaintainedStore, ttl, interval time.Duration, logger zerolog.Logger) *CleanupService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupService{
		store:    store,
		ttl:      ttl,
		interval: interval,
		logger:   logger.With().Str("component", "store-cleanup").Logger(),
	}
}

// Serve implements suture.Service.
func (c *CleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.refreshGauge(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if c.ttl > 0 {
				removed, err := c.store.CleanupStale(ctx, c.ttl)
				if err != nil {
					c.logger.Warn().Err(err).Msg("Stale listener cleanup failed")
				} else if removed > 0 {
					c.logger.Info().Int("removed", removed).Msg("Stale listeners removed")
				}
			}
			c.refreshGauge(ctx)
		}
	}
}

func (c *CleanupService) refreshGauge(ctx context.Context) {
	if count, err := c.store.Count(ctx); err == nil {
		metrics.ListenerCount.Set(float64(count))
	}
}

// String identifies the service in supervisor logs.
func (c *CleanupService) String() string {
	return "store-cleanup"
}

// GCService periodically runs the store's value log garbage
// collection. Badger requires this to be driven by the application.
type GCService struct {
	store    MaintainedStore
	interval time.Duration
	logger   zerolog.Logger
}

// NewGCService creates the value log GC loop.
func NewGCService(store MaintainedStore, interval time.Duration, logger zerolog.Logger) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{
		store:    store,
		interval: interval,
		logger:   logger.With().Str("component", "store-gc").Logger(),
	}
}

// Serve implements suture.Service.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// ErrNoRewrite is normal when nothing qualifies.
			if err := g.store.RunGC(); err != nil {
				g.logger.Debug().Err(err).Msg("Value log GC pass skipped")
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (g *GCService) String() string {
	return "store-gc"
}
