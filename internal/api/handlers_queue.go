// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package api

import (
	"net/http"
	"time"

	"github.com/atmotune/atmotune/internal/engine"
	"github.com/atmotune/atmotune/internal/metrics"
	"github.com/atmotune/atmotune/internal/middleware"
	"github.com/atmotune/atmotune/internal/models"
	"github.com/atmotune/atmotune/internal/store"
)

// QueueGenerateRequest is the client's situation description. All
// fields are optional; an empty body generates a context-free queue.
type QueueGenerateRequest struct {
	Activity   string          `json:"activity" validate:"max=64"`
	TimeOfDay  string          `json:"time_of_day" validate:"max=32"`
	Keywords   []string        `json:"keywords" validate:"max=10,dive,max=64"`
	SeedGenres []string        `json:"seed_genres" validate:"max=10,dive,max=64"`
	Size       int             `json:"size" validate:"gte=0,lte=50"`
	Weights    *engine.Weights `json:"weights,omitempty"`
}

// QueueGenerate scores the listener's library against current weather
// and declared context and returns a fresh queue. The residual pool is
// persisted for QueueNext.
func (h *Handler) QueueGenerate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	listenerID := middleware.GetListenerID(r.Context())

	var req QueueGenerateRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "bad_request", "Malformed request body", err)
			return
		}
	}
	// Query parameters back the body for clients that cannot send one.
	if req.Activity == "" {
		req.Activity = r.URL.Query().Get("activity")
	}
	if req.Size == 0 {
		req.Size = getIntParam(r, "size", 0)
	}
	if len(req.Keywords) == 0 {
		req.Keywords = parseCommaSeparated(r.URL.Query().Get("keywords"))
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Invalid request parameters", err)
		return
	}

	state, ok := h.requireListener(w, r, listenerID)
	if !ok {
		return
	}
	if len(state.Library) == 0 {
		respondError(w, http.StatusBadRequest, "bad_request", "Analyze your library first", nil)
		return
	}

	loc := h.weather.Locate(r.Context())
	snapshot := h.weather.Current(r.Context(), loc)

	activity := engine.ActivityContext{Activity: req.Activity, TimeOfDay: req.TimeOfDay}
	result, err := h.engine.Generate(engine.Request{
		Tracks:     state.Library,
		Profile:    state.Profile,
		Weather:    snapshot,
		Context:    activity,
		Keywords:   req.Keywords,
		SeedGenres: req.SeedGenres,
		Size:       req.Size,
		Behavior:   state.Behavior,
		Weights:    req.Weights,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "Queue generation failed", err)
		return
	}

	_, err = h.store.Update(r.Context(), listenerID, func(s *store.ListenerState) error {
		s.Pool = result.Pool
		s.Keywords = req.Keywords
		s.SeedGenres = req.SeedGenres
		s.Context = activity
		s.Weights = req.Weights
		return nil
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to persist queue state", err)
		return
	}

	elapsed := time.Since(start)
	metrics.QueueGenerationDuration.Observe(elapsed.Seconds())
	metrics.TracksScored.Add(float64(len(state.Library)))
	h.logger.Info().
		Str("listener", listenerID).
		Int("queue", len(result.Queue)).
		Int("pool", len(result.Pool)).
		Str("activity", sanitizeLogValue(req.Activity)).
		Dur("elapsed", elapsed).
		Msg("Queue generated")

	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{
		"queue":     result.Queue,
		"modifiers": result.Modifiers,
		"weather":   snapshot,
		"location":  loc,
		"pool_size": len(result.Pool),
	}, queryTimeSince(start)))
}

// QueueNext rescores the residual pool under current conditions and
// returns the single best candidate, removing it from the pool.
func (h *Handler) QueueNext(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	listenerID := middleware.GetListenerID(r.Context())

	state, ok := h.requireListener(w, r, listenerID)
	if !ok {
		return
	}
	if len(state.Pool) == 0 {
		respondError(w, http.StatusNotFound, "not_found", "Candidate pool is empty, generate a queue first", nil)
		return
	}

	loc := h.weather.Locate(r.Context())
	snapshot := h.weather.Current(r.Context(), loc)

	best, ok := h.engine.Rescore(state.Pool, state.Profile, snapshot, state.Context, state.Keywords, state.SeedGenres, state.Behavior, state.Weights)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "Candidate pool is empty, generate a queue first", nil)
		return
	}

	_, err := h.store.Update(r.Context(), listenerID, func(s *store.ListenerState) error {
		remaining := make([]engine.ScoredTrack, 0, len(s.Pool))
		for _, st := range s.Pool {
			if st.Track.ID != best.Track.ID {
				remaining = append(remaining, st)
			}
		}
		s.Pool = remaining
		return nil
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to persist queue state", err)
		return
	}

	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{
		"track":     best,
		"pool_size": len(state.Pool) - 1,
	}, queryTimeSince(start)))
}
