// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package engine

import "time"

// BuildProfile computes a PreferenceProfile from the listener's library.
// Malformed tracks contribute neutral defaults rather than failing the
// build, and an empty library yields an empty profile, never nil maps.
func BuildProfile(tracks []Track) *PreferenceProfile {
	profile := &PreferenceProfile{
		GenreCounts: make(map[string]int),
		BuiltAt:     time.Now().UTC(),
	}
	if len(tracks) == 0 {
		return profile
	}

	var tempo, energy, valence, acoustic, dance float64
	for i := range tracks {
		t := tracks[i].normalized()
		tempo += t.Tempo
		energy += t.Energy
		valence += t.Valence
		acoustic += t.Acousticness
		dance += t.Danceability
		profile.GenreCounts[t.PrimaryGenre()]++
	}

	n := float64(len(tracks))
	profile.AvgTempo = tempo / n
	profile.AvgEnergy = energy / n
	profile.AvgValence = valence / n
	profile.AvgAcousticness = acoustic / n
	profile.AvgDanceability = dance / n
	profile.TotalTracks = len(tracks)
	return profile
}
