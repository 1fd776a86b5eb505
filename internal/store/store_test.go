// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/atmotune/atmotune/internal/engine"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return New(db, zerolog.Nop())
}

func TestGetMissingListener(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	_, err := s.Get(context.Background(), "nobody")
	if !errors.Is(err, ErrListenerNotFound) {
		t.Errorf("Get() error = %v, want ErrListenerNotFound", err)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	state := NewListenerState("alice")
	state.Keywords = []string{"rain"}
	state.Library = []engine.Track{{ID: "t1", Title: "Song", Genres: []string{"rock"}, Tempo: 120}}
	state.Behavior.RecordEvent("t1", []string{"rock"}, 0.95)

	if err := s.Put(ctx, state); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := s.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ListenerID != "alice" {
		t.Errorf("ListenerID = %q, want alice", got.ListenerID)
	}
	if len(got.Library) != 1 || got.Library[0].ID != "t1" {
		t.Errorf("Library = %+v, want the stored track", got.Library)
	}
	if got.Behavior == nil || got.Behavior.GenreAffinity["rock"] == 0 {
		t.Error("behavior state did not survive the round trip")
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be stamped on Put")
	}
}

func TestPutEmptyListenerID(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if err := s.Put(context.Background(), &ListenerState{}); err == nil {
		t.Error("Put() with empty listener id should fail")
	}
}

func TestUpdateCreatesMissingState(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	state, err := s.Update(ctx, "bob", func(st *ListenerState) error {
		st.Keywords = []string{"jazz"}
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if state.ListenerID != "bob" {
		t.Errorf("ListenerID = %q, want bob", state.ListenerID)
	}
	if state.Behavior == nil {
		t.Error("fresh state should carry an initialized behavior")
	}

	got, err := s.Get(ctx, "bob")
	if err != nil {
		t.Fatalf("Get() after Update error = %v", err)
	}
	if len(got.Keywords) != 1 || got.Keywords[0] != "jazz" {
		t.Errorf("Keywords = %v, want [jazz]", got.Keywords)
	}
}

func TestUpdatePropagatesCallbackError(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	sentinel := errors.New("nope")

	_, err := s.Update(ctx, "carol", func(*ListenerState) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Update() error = %v, want sentinel", err)
	}
	if _, err := s.Get(ctx, "carol"); !errors.Is(err, ErrListenerNotFound) {
		t.Error("failed Update() must not persist state")
	}
}

func TestUpdateSerializesWriters(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	// Concurrent events against one listener must not lose updates.
	const writers = 20
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, _ = s.Update(ctx, "dave", func(st *ListenerState) error {
				st.Behavior.RecordEvent("t1", []string{"rock"}, 0.95)
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "dave")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Behavior.ListenHistory) != writers {
		t.Errorf("ListenHistory length = %d, want %d", len(got.Behavior.ListenHistory), writers)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, NewListenerState("erin")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Delete(ctx, "erin"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "erin"); err != nil {
		t.Errorf("second Delete() error = %v, want nil", err)
	}
	if _, err := s.Get(ctx, "erin"); !errors.Is(err, ErrListenerNotFound) {
		t.Error("state should be gone after Delete")
	}
}

func TestCountAndCleanupStale(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	fresh := NewListenerState("fresh")
	if err := s.Put(ctx, fresh); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	stale := NewListenerState("stale")
	if err := s.Put(ctx, stale); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	// Backdate the stale listener past any reasonable TTL.
	stale.UpdatedAt = time.Now().Add(-48 * time.Hour)
	data, _ := json.Marshal(stale)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(listenerKeyPrefix+"stale"), data)
	})
	if err != nil {
		t.Fatalf("backdate: %v", err)
	}

	if n, err := s.Count(ctx); err != nil || n != 2 {
		t.Fatalf("Count() = %d, %v; want 2, nil", n, err)
	}

	removed, err := s.CleanupStale(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("CleanupStale() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := s.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh listener should survive cleanup, got %v", err)
	}
}

func TestTokenDataValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		token TokenData
		want  bool
	}{
		{name: "empty", token: TokenData{}, want: false},
		{name: "expired", token: TokenData{AccessToken: "x", ExpiresAt: time.Now().Add(-time.Minute)}, want: false},
		{name: "valid", token: TokenData{AccessToken: "x", ExpiresAt: time.Now().Add(time.Hour)}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.token.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
