// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package api

import (
	"net/http"
	"time"

	"github.com/atmotune/atmotune/internal/middleware"
	"github.com/atmotune/atmotune/internal/models"
	"github.com/atmotune/atmotune/internal/store"
)

// PlaybackPlayRequest optionally names the track URIs to start.
type PlaybackPlayRequest struct {
	URIs []string `json:"uris" validate:"max=50,dive,max=256"`
}

// withPlaybackToken runs fn with a fresh access token, persisting any
// refresh that happened along the way.
func (h *Handler) withPlaybackToken(w http.ResponseWriter, r *http.Request, fn func(accessToken string) error) bool {
	listenerID := middleware.GetListenerID(r.Context())

	state, ok := h.requireListener(w, r, listenerID)
	if !ok {
		return false
	}
	if state.Token.AccessToken == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "Connect a music account first", nil)
		return false
	}

	accessToken, err := h.freshToken(r.Context(), state)
	if err != nil {
		respondError(w, http.StatusBadGateway, "upstream_error", "Token refresh failed, reconnect your account", err)
		return false
	}

	if err := fn(accessToken); err != nil {
		respondError(w, http.StatusBadGateway, "upstream_error", "Playback request failed", err)
		return false
	}

	// Persist a refreshed token so the next call skips the refresh.
	_, err = h.store.Update(r.Context(), listenerID, func(s *store.ListenerState) error {
		s.Token = state.Token
		return nil
	})
	if err != nil {
		h.logger.Warn().Err(err).Str("listener", listenerID).Msg("Failed to persist refreshed token")
	}
	return true
}

// PlaybackPlay starts or resumes playback on the listener's active
// device.
func (h *Handler) PlaybackPlay(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req PlaybackPlayRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "bad_request", "Malformed request body", err)
			return
		}
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Invalid request parameters", err)
		return
	}

	ok := h.withPlaybackToken(w, r, func(accessToken string) error {
		return h.catalogue.Play(r.Context(), accessToken, req.URIs)
	})
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{"playing": true}, queryTimeSince(start)))
}

// PlaybackPause pauses playback.
func (h *Handler) PlaybackPause(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ok := h.withPlaybackToken(w, r, func(accessToken string) error {
		return h.catalogue.Pause(r.Context(), accessToken)
	})
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{"playing": false}, queryTimeSince(start)))
}

// PlaybackNext skips to the next track on the device queue.
func (h *Handler) PlaybackNext(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ok := h.withPlaybackToken(w, r, func(accessToken string) error {
		return h.catalogue.SkipNext(r.Context(), accessToken)
	})
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{"skipped": true}, queryTimeSince(start)))
}

// PlaybackPrevious returns to the previous track on the device queue.
func (h *Handler) PlaybackPrevious(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ok := h.withPlaybackToken(w, r, func(accessToken string) error {
		return h.catalogue.SkipPrevious(r.Context(), accessToken)
	})
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{"skipped": true}, queryTimeSince(start)))
}

// PlaybackDevices lists the listener's available playback devices.
func (h *Handler) PlaybackDevices(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var devices interface{}
	ok := h.withPlaybackToken(w, r, func(accessToken string) error {
		d, err := h.catalogue.Devices(r.Context(), accessToken)
		if err != nil {
			return err
		}
		devices = d
		return nil
	})
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{"devices": devices}, queryTimeSince(start)))
}

// PlaybackCurrent proxies the current playback state.
func (h *Handler) PlaybackCurrent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var state interface{}
	ok := h.withPlaybackToken(w, r, func(accessToken string) error {
		playback, err := h.catalogue.CurrentPlayback(r.Context(), accessToken)
		if err != nil {
			return err
		}
		state = playback
		return nil
	})
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{"playback": state}, queryTimeSince(start)))
}
