// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package api

import (
	"net/http"
	"time"

	"github.com/atmotune/atmotune/internal/engine"
	"github.com/atmotune/atmotune/internal/middleware"
	"github.com/atmotune/atmotune/internal/models"
	"github.com/atmotune/atmotune/internal/store"
)

// LibraryAnalyze pulls the listener's full library from the catalogue,
// builds the preference profile, and persists both. This is the
// expensive onboarding call; clients should show progress.
func (h *Handler) LibraryAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	listenerID := middleware.GetListenerID(r.Context())

	state, ok := h.requireListener(w, r, listenerID)
	if !ok {
		return
	}
	if state.Token.AccessToken == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Connect a music account first", nil)
		return
	}

	accessToken, err := h.freshToken(r.Context(), state)
	if err != nil {
		respondError(w, http.StatusBadGateway, "upstream_error", "Token refresh failed, reconnect your account", err)
		return
	}

	library, err := h.catalogue.FetchLibrary(r.Context(), accessToken)
	if err != nil {
		respondError(w, http.StatusBadGateway, "upstream_error", "Library fetch failed", err)
		return
	}

	profile := engine.BuildProfile(library)

	_, err = h.store.Update(r.Context(), listenerID, func(s *store.ListenerState) error {
		s.Token = state.Token
		s.Library = library
		s.Profile = profile
		s.Pool = nil
		return nil
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to persist library", err)
		return
	}

	h.logger.Info().
		Str("listener", listenerID).
		Int("tracks", len(library)).
		Dur("elapsed", time.Since(start)).
		Msg("Library analyzed")

	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{
		"tracks_analyzed": len(library),
		"profile":         profile,
	}, queryTimeSince(start)))
}

// Search proxies a track search against the catalogue.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	query := r.URL.Query().Get("q")
	if query == "" || len(query) > 256 {
		respondError(w, http.StatusBadRequest, "bad_request", "Query parameter 'q' is required", nil)
		return
	}
	limit := getIntParam(r, "limit", 0)

	var tracks []engine.Track
	ok := h.withPlaybackToken(w, r, func(accessToken string) error {
		found, err := h.catalogue.SearchTracks(r.Context(), accessToken, query, limit)
		if err != nil {
			return err
		}
		tracks = found
		return nil
	})
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{
		"tracks": tracks,
		"count":  len(tracks),
	}, queryTimeSince(start)))
}

// Behavior exposes the listener's adaptive state for inspection.
func (h *Handler) Behavior(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	listenerID := middleware.GetListenerID(r.Context())

	state, ok := h.requireListener(w, r, listenerID)
	if !ok {
		return
	}

	behavior := state.Behavior
	if behavior == nil {
		behavior = engine.NewBehaviorState()
	}

	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{
		"skip_threshold": behavior.SkipThreshold,
		"genre_affinity": behavior.GenreAffinity,
		"skips_recorded": behavior.SkipCount(),
		"events_tracked": len(behavior.ListenHistory),
	}, queryTimeSince(start)))
}
