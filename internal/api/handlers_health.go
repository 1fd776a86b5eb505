// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package api

import (
	"net/http"
	"time"

	"github.com/atmotune/atmotune/internal/models"
)

// Health reports overall service health: store reachability and
// uptime. Weather and catalogue outages degrade responses rather than
// failing them, so they do not gate health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	storeOK := true
	listeners, err := h.store.Count(r.Context())
	if err != nil {
		storeOK = false
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !storeOK {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	respondJSON(w, httpStatus, models.NewSuccessResponse(map[string]interface{}{
		"status":          status,
		"store_connected": storeOK,
		"listeners":       listeners,
		"uptime_seconds":  time.Since(h.startTime).Seconds(),
	}, queryTimeSince(start)))
}

// HealthLive is the liveness probe: 200 whenever the process runs.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	}, queryTimeSince(start)))
}

// HealthReady is the readiness probe: 200 only when the store answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if _, err := h.store.Count(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "internal_error", "Store unavailable", err)
		return
	}
	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{
		"ready": true,
	}, queryTimeSince(start)))
}
