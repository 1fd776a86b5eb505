// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package engine

import "time"

// Skip-threshold adaptation parameters. The threshold floats inside
// [minSkipThreshold, maxSkipThreshold], nudged toward the listener's
// observed skip completions once enough evidence accumulates.
const (
	DefaultSkipThreshold = 0.50
	minSkipThreshold     = 0.20
	maxSkipThreshold     = 0.80
	thresholdMargin      = 0.10
	thresholdHysteresis  = 0.05
	minSkipsForAdjust    = 5
	skipWindow           = 20

	skipHistoryCap   = 50
	listenHistoryCap = 100

	completionBonusCutoff = 0.90
	completionBonus       = 0.20
	maxGradedBonus        = 0.15
	maxGradedPenalty      = 0.20

	genreModifierScale = 0.5
)

// ListenEvent is one recorded playback outcome.
type ListenEvent struct {
	TrackID    string    `json:"track_id"`
	Genres     []string  `json:"genres,omitempty"`
	Completion float64   `json:"completion"`
	Skipped    bool      `json:"skipped"`
	Timestamp  time.Time `json:"timestamp"`
}

// BehaviorState is the accumulated listening behavior for one listener:
// per-genre affinities in [-1,1], the adaptive skip threshold, and
// bounded event histories. The state is plain data; the caller owns
// persistence and must serialize writers (one writer per listener).
type BehaviorState struct {
	GenreAffinity map[string]float64 `json:"genre_affinity"`
	SkipThreshold float64            `json:"skip_threshold"`
	SkipHistory   []float64          `json:"skip_history"`
	ListenHistory []ListenEvent      `json:"listen_history"`
}

// NewBehaviorState returns a fresh state with the default threshold.
func NewBehaviorState() *BehaviorState {
	return &BehaviorState{
		GenreAffinity: make(map[string]float64),
		SkipThreshold: DefaultSkipThreshold,
	}
}

// RecordEvent folds one playback outcome into the state. A completion
// below the current threshold counts as a skip and feeds the threshold
// adaptation; every event moves the affinities of the track's genres:
//
//   - completion >= 0.90: flat +0.20
//   - completion >= threshold: 0..+0.15, linear in distance above
//   - completion < threshold: 0..-0.20, linear in distance below
//
// Affinities are clamped to [-1,1]. Grading uses the threshold in
// effect when the event arrives; adaptation applies afterwards.
func (s *BehaviorState) RecordEvent(trackID string, genres []string, completion float64) {
	if s.GenreAffinity == nil {
		s.GenreAffinity = make(map[string]float64)
	}
	if s.SkipThreshold == 0 {
		s.SkipThreshold = DefaultSkipThreshold
	}
	completion = clamp(completion, 0, 1)
	threshold := s.SkipThreshold
	skipped := completion < threshold

	s.ListenHistory = append(s.ListenHistory, ListenEvent{
		TrackID:    trackID,
		Genres:     genres,
		Completion: completion,
		Skipped:    skipped,
		Timestamp:  time.Now().UTC(),
	})
	if len(s.ListenHistory) > listenHistoryCap {
		s.ListenHistory = s.ListenHistory[len(s.ListenHistory)-listenHistoryCap:]
	}

	delta := affinityDelta(completion, threshold)
	for _, genre := range genres {
		if genre == "" {
			continue
		}
		s.GenreAffinity[genre] = clamp(s.GenreAffinity[genre]+delta, -1, 1)
	}

	if skipped {
		s.SkipHistory = append(s.SkipHistory, completion)
		if len(s.SkipHistory) > skipHistoryCap {
			s.SkipHistory = s.SkipHistory[len(s.SkipHistory)-skipHistoryCap:]
		}
		s.adjustThreshold()
	}
}

// affinityDelta maps a completion fraction to an affinity adjustment
// under the given skip threshold.
func affinityDelta(completion, threshold float64) float64 {
	switch {
	case completion >= completionBonusCutoff:
		return completionBonus
	case completion >= threshold:
		span := completionBonusCutoff - threshold
		if span <= 0 {
			return maxGradedBonus
		}
		return maxGradedBonus * (completion - threshold) / span
	default:
		if threshold <= 0 {
			return 0
		}
		return -maxGradedPenalty * (threshold - completion) / threshold
	}
}

// adjustThreshold recomputes the skip threshold from the mean of the
// most recent skip completions, with hysteresis so single events do
// not cause oscillation.
func (s *BehaviorState) adjustThreshold() {
	if len(s.SkipHistory) < minSkipsForAdjust {
		return
	}
	window := s.SkipHistory
	if len(window) > skipWindow {
		window = window[len(window)-skipWindow:]
	}
	var sum float64
	for _, c := range window {
		sum += c
	}
	proposed := clamp(sum/float64(len(window))+thresholdMargin, minSkipThreshold, maxSkipThreshold)
	if diff := proposed - s.SkipThreshold; diff > thresholdHysteresis || diff < -thresholdHysteresis {
		s.SkipThreshold = proposed
	}
}

// GenreModifier returns the scoring adjustment for a track's genres:
// the mean affinity across them, scaled by 0.5. Genres the listener
// has no history with contribute zero, as does an empty genre list,
// so the result lives in [-0.5, 0.5].
func (s *BehaviorState) GenreModifier(genres []string) float64 {
	if s == nil || len(genres) == 0 {
		return 0
	}
	var sum float64
	for _, genre := range genres {
		sum += s.GenreAffinity[genre]
	}
	return sum / float64(len(genres)) * genreModifierScale
}

// SkipCount returns the number of recorded skips.
func (s *BehaviorState) SkipCount() int {
	if s == nil {
		return 0
	}
	return len(s.SkipHistory)
}
