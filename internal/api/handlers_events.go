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

// PlaybackEventRequest reports how far a track played before it ended
// or the listener moved on. Completion is the played fraction in
// [0,1]; when absent it is derived from progress and duration.
type PlaybackEventRequest struct {
	TrackID    string   `json:"track_id" validate:"required,max=64"`
	Genres     []string `json:"genres" validate:"max=10,dive,max=64"`
	Completion *float64 `json:"completion,omitempty" validate:"omitempty,gte=0,lte=1"`
	ProgressMS int      `json:"progress_ms" validate:"gte=0"`
	DurationMS int      `json:"duration_ms" validate:"gte=0"`
}

func (req *PlaybackEventRequest) completion() float64 {
	if req.Completion != nil {
		return *req.Completion
	}
	if req.DurationMS <= 0 {
		return 0
	}
	c := float64(req.ProgressMS) / float64(req.DurationMS)
	if c > 1 {
		c = 1
	}
	return c
}

// PlaybackEvent folds one playback outcome into the listener's
// behavior state.
func (h *Handler) PlaybackEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	listenerID := middleware.GetListenerID(r.Context())

	var req PlaybackEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Malformed request body", err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "Invalid request parameters", err)
		return
	}

	completion := req.completion()
	genres := req.Genres

	var snapshot engine.BehaviorState
	_, err := h.store.Update(r.Context(), listenerID, func(s *store.ListenerState) error {
		if s.Behavior == nil {
			s.Behavior = engine.NewBehaviorState()
		}
		// Fall back to the library's genre labels when the client
		// did not send any.
		if len(genres) == 0 {
			for _, t := range s.Library {
				if t.ID == req.TrackID {
					genres = t.Genres
					break
				}
			}
		}
		s.Behavior.RecordEvent(req.TrackID, genres, completion)
		snapshot = *s.Behavior
		return nil
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to record event", err)
		return
	}

	outcome := metrics.OutcomePartial
	if last := snapshot.ListenHistory; len(last) > 0 {
		switch {
		case last[len(last)-1].Skipped:
			outcome = metrics.OutcomeSkipped
		case completion >= 0.90:
			outcome = metrics.OutcomeCompleted
		}
	}
	metrics.PlaybackEvents.WithLabelValues(outcome).Inc()

	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{
		"skip_threshold": snapshot.SkipThreshold,
		"skips_recorded": snapshot.SkipCount(),
		"events_tracked": len(snapshot.ListenHistory),
	}, queryTimeSince(start)))
}
