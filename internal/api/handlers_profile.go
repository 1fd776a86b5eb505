// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package api

import (
	"net/http"
	"time"

	"github.com/atmotune/atmotune/internal/models"
	"github.com/atmotune/atmotune/internal/spotify"
)

// Profile proxies the connected account's upstream identity.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var profile *spotify.UserProfile
	ok := h.withPlaybackToken(w, r, func(accessToken string) error {
		p, err := h.catalogue.GetUserProfile(r.Context(), accessToken)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{
		"profile": profile,
	}, queryTimeSince(start)))
}

// Playlists lists the connected account's playlists.
func (h *Handler) Playlists(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var playlists []spotify.Playlist
	ok := h.withPlaybackToken(w, r, func(accessToken string) error {
		p, err := h.catalogue.GetAllPlaylists(r.Context(), accessToken)
		if err != nil {
			return err
		}
		playlists = p
		return nil
	})
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{
		"playlists": playlists,
		"count":     len(playlists),
	}, queryTimeSince(start)))
}
