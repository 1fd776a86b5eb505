// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package api

import (
	"net/http"
	"time"

	"github.com/atmotune/atmotune/internal/engine"
	"github.com/atmotune/atmotune/internal/models"
)

// WeatherCurrent returns the resolved conditions plus the modifier
// vector they produce, for client display and debugging.
func (h *Handler) WeatherCurrent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	loc := h.weather.Locate(r.Context())
	snapshot := h.weather.Current(r.Context(), loc)

	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{
		"location":  loc,
		"weather":   snapshot,
		"modifiers": engine.WeatherModifiers(snapshot),
	}, queryTimeSince(start)))
}
