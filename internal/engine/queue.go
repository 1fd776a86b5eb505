// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package engine

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// defaultSeed keeps shuffle ordering reproducible when no seed is
// configured.
const defaultSeed = 42

// Engine generates shuffled queues from scored candidates. It is safe
// for concurrent use; the shuffle source is guarded by a mutex.
type Engine struct {
	config *Config
	logger zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine creates an Engine with the given configuration.
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = defaultSeed
	}
	return &Engine{
		config: cfg.Clone(),
		logger: logger.With().Str("component", "engine").Logger(),
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // shuffle ordering, not cryptography
	}, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.config.Clone()
}

// Generate scores every candidate under the request's context, sorts
// descending, shuffles the top pool, and truncates to the requested
// size. Queue and Pool in the result partition the scored candidates.
// Empty candidates or an empty profile produce an empty result.
func (e *Engine) Generate(req Request) (*Result, error) {
	mods := CombineModifiers(WeatherModifiers(req.Weather), ActivityModifiers(req.Context))
	result := &Result{
		Queue:     []ScoredTrack{},
		Pool:      []ScoredTrack{},
		Modifiers: mods,
	}
	if len(req.Tracks) == 0 || req.Profile.Empty() {
		e.logger.Debug().
			Int("candidates", len(req.Tracks)).
			Bool("profile_empty", req.Profile.Empty()).
			Msg("Nothing to queue")
		return result, nil
	}

	size := req.Size
	if size <= 0 {
		size = e.config.QueueSize
	}
	if size > MaxQueueSize {
		size = MaxQueueSize
	}
	weights := e.requestWeights(req.Weights)

	scored := make([]ScoredTrack, 0, len(req.Tracks))
	for _, t := range req.Tracks {
		scored = append(scored, ScoredTrack{
			Track: t,
			Score: Score(t, req.Profile, mods, req.Keywords, req.SeedGenres, req.Behavior, weights),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	poolSize := e.config.PoolSize
	if poolSize > len(scored) {
		poolSize = len(scored)
	}
	top := make([]ScoredTrack, poolSize)
	copy(top, scored[:poolSize])

	e.rngMu.Lock()
	e.rng.Shuffle(len(top), func(i, j int) {
		top[i], top[j] = top[j], top[i]
	})
	e.rngMu.Unlock()

	if size > len(top) {
		size = len(top)
	}
	result.Queue = top[:size]
	result.Pool = append(result.Pool, top[size:]...)
	result.Pool = append(result.Pool, scored[poolSize:]...)

	e.logger.Debug().
		Int("candidates", len(req.Tracks)).
		Int("queued", len(result.Queue)).
		Int("pool", len(result.Pool)).
		Msg("Queue generated")
	return result, nil
}

// Rescore re-evaluates a residual pool under fresh context and returns
// the single best candidate. The boolean is false when the pool is
// empty.
func (e *Engine) Rescore(pool []ScoredTrack, profile *PreferenceProfile, weather WeatherSnapshot, ctx ActivityContext, keywords, seedGenres []string, behavior *BehaviorState, weights *Weights) (ScoredTrack, bool) {
	if len(pool) == 0 || profile.Empty() {
		return ScoredTrack{}, false
	}
	mods := CombineModifiers(WeatherModifiers(weather), ActivityModifiers(ctx))
	w := e.requestWeights(weights)

	best := ScoredTrack{Score: -1}
	for _, st := range pool {
		score := Score(st.Track, profile, mods, keywords, seedGenres, behavior, w)
		if score > best.Score {
			best = ScoredTrack{Track: st.Track, Score: score}
		}
	}
	return best, true
}

func (e *Engine) requestWeights(w *Weights) Weights {
	if w == nil {
		return e.config.Weights
	}
	return *w
}
