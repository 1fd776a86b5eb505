// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

// Package store persists per-listener state in BadgerDB. The engine
// itself is stateless; everything a listener accumulates (profile,
// analyzed library, behavior, residual pool, tokens) round-trips
// through this store as a single JSON blob per listener.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/atmotune/atmotune/internal/engine"
)

// Key prefix for BadgerDB storage.
const listenerKeyPrefix = "listener:"

// ErrListenerNotFound is returned when no state exists for a listener.
var ErrListenerNotFound = errors.New("listener state not found")

// TokenData is the listener's upstream OAuth state.
type TokenData struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// Valid reports whether the access token is present and unexpired.
func (t TokenData) Valid() bool {
	return t.AccessToken != "" && time.Now().Before(t.ExpiresAt)
}

// ListenerState is everything the server remembers about a listener.
type ListenerState struct {
	ListenerID string                    `json:"listener_id"`
	Profile    *engine.PreferenceProfile `json:"profile,omitempty"`
	Library    []engine.Track            `json:"library,omitempty"`
	Behavior   *engine.BehaviorState     `json:"behavior,omitempty"`
	Pool       []engine.ScoredTrack      `json:"pool,omitempty"`
	Keywords   []string                  `json:"keywords,omitempty"`
	SeedGenres []string                  `json:"seed_genres,omitempty"`
	Weights    *engine.Weights           `json:"weights,omitempty"`
	Context    engine.ActivityContext    `json:"context,omitempty"`
	Token      TokenData                 `json:"token,omitempty"`
	UpdatedAt  time.Time                 `json:"updated_at"`
}

// NewListenerState returns an initialized state for a listener.
func NewListenerState(listenerID string) *ListenerState {
	return &ListenerState{
		ListenerID: listenerID,
		Behavior:   engine.NewBehaviorState(),
	}
}

// Stale reports whether the state has gone untouched longer than ttl.
func (s *ListenerState) Stale(ttl time.Duration) bool {
	return !s.UpdatedAt.IsZero() && time.Since(s.UpdatedAt) > ttl
}

// Store is a BadgerDB-backed listener state store. Read-modify-write
// cycles go through Update, which holds a per-listener lock so each
// listener has exactly one writer at a time.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Store on an open BadgerDB handle.
func New(db *badger.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "store").Logger(),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Get retrieves a listener's state.
func (s *Store) Get(ctx context.Context, listenerID string) (*ListenerState, error) {
	var state ListenerState
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(listenerKeyPrefix + listenerID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrListenerNotFound
		}
		if err != nil {
			return fmt.Errorf("get listener: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &state)
		})
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Put stores a listener's state, stamping UpdatedAt.
func (s *Store) Put(ctx context.Context, state *ListenerState) error {
	if state.ListenerID == "" {
		return fmt.Errorf("listener id is empty")
	}
	state.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal listener state: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(listenerKeyPrefix+state.ListenerID), data)
	})
}

// Delete removes a listener's state. Deleting an absent listener is
// not an error.
func (s *Store) Delete(ctx context.Context, listenerID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(listenerKeyPrefix + listenerID))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete listener: %w", err)
		}
		return nil
	})
}

// Update runs fn inside the listener's write lock, loading existing
// state (or a fresh one) and persisting whatever fn leaves behind.
// This is the single-writer path for behavior state mutation.
func (s *Store) Update(ctx context.Context, listenerID string, fn func(*ListenerState) error) (*ListenerState, error) {
	lock := s.lockFor(listenerID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.Get(ctx, listenerID)
	if errors.Is(err, ErrListenerNotFound) {
		state = NewListenerState(listenerID)
	} else if err != nil {
		return nil, err
	}

	if err := fn(state); err != nil {
		return nil, err
	}
	if err := s.Put(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Store) lockFor(listenerID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[listenerID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[listenerID] = lock
	}
	return lock
}

// Count returns the number of stored listeners.
func (s *Store) Count(ctx context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(listenerKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// CleanupStale removes listeners untouched for longer than ttl.
func (s *Store) CleanupStale(ctx context.Context, ttl time.Duration) (int, error) {
	var staleIDs []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(listenerKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var state ListenerState
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &state)
			})
			if err != nil {
				continue
			}
			if state.Stale(ttl) {
				staleIDs = append(staleIDs, state.ListenerID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan listeners: %w", err)
	}

	count := 0
	for _, id := range staleIDs {
		if err := s.Delete(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("listener", id).Msg("Failed to delete stale listener")
			continue
		}
		count++
	}
	if count > 0 {
		s.logger.Info().Int("removed", count).Msg("Cleaned up stale listeners")
	}
	return count, nil
}

// RunGC triggers a BadgerDB value-log garbage collection pass.
func (s *Store) RunGC() error {
	return s.db.RunValueLogGC(0.5)
}
