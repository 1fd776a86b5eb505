// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package engine

import (
	"math"

	"github.com/rs/zerolog"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// uniformTrack builds a track whose descriptors all equal v, handy for
// constructing profiles with known averages.
func uniformTrack(id, genre string, tempo, v float64) Track {
	return Track{
		ID:           id,
		Title:        id,
		Artist:       "artist-" + id,
		Genres:       []string{genre},
		Tempo:        tempo,
		Energy:       v,
		Valence:      v,
		Acousticness: v,
		Danceability: v,
	}
}
