// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package engine

import (
	"math"
	"strings"
)

// Scoring term weights. Each similarity term contributes at most its
// weight; the fixed ceiling caps the stacked total.
const (
	similarityTermWeight = 0.08
	genreBaseTerm        = 0.15
	genreTermCeiling     = 0.65
	playlistBonusWeight  = 0.10
	keywordBonus         = 0.15
	popularityWeight     = 0.10
	trendingBonus        = 0.05
	tempoNormalization   = 100.0

	// MaxScore is the fixed scoring ceiling: five similarity terms,
	// the genre ceiling, playlist, keyword, popularity and trending
	// bonuses stacked at their maxima.
	MaxScore = 1.57
)

// Context-match increments and their gating thresholds.
const (
	energyMatchIncrement  = 0.08
	valenceMatchIncrement = 0.07
	tempoMatchIncrement   = 0.06
	acousticIncrement     = 0.07
	danceIncrement        = 0.07

	modifierGate      = 0.2
	tempoSlowGate     = -0.1
	acousticGate      = 0.3
	danceGate         = 0.3
	highDescriptor    = 0.7
	lowDescriptor     = 0.4
	highAcoustic      = 0.6
	fastTempoCutoff   = 130.0
	slowTempoCutoff   = 100.0
)

// Weight knob baselines. Knobs are percentages; dividing by the
// baseline yields the multiplier applied to the related terms.
const (
	weatherWeightBase = 60.0
	weightBase        = 100.0
)

// Weights are the listener-tunable scoring knobs, expressed as
// percentages of their baseline influence.
type Weights struct {
	Weather  float64 `koanf:"weather" json:"weather" validate:"gte=0,lte=200"`
	Genre    float64 `koanf:"genre" json:"genre" validate:"gte=0,lte=200"`
	Mood     float64 `koanf:"mood" json:"mood" validate:"gte=0,lte=200"`
	Energy   float64 `koanf:"energy" json:"energy" validate:"gte=0,lte=200"`
	Playlist float64 `koanf:"playlist" json:"playlist" validate:"gte=0,lte=200"`
}

// DefaultWeights returns the baseline knob settings.
func DefaultWeights() Weights {
	return Weights{
		Weather:  weatherWeightBase,
		Genre:    weightBase,
		Mood:     weightBase,
		Energy:   weightBase,
		Playlist: weightBase,
	}
}

// multipliers converts percentage knobs to term multipliers. Zero-value
// knobs are treated as defaults so a partially filled Weights does not
// silently null out a term.
func (w Weights) multipliers() (weather, genre, mood, energy, playlist float64) {
	weather = knobMultiplier(w.Weather, weatherWeightBase)
	genre = knobMultiplier(w.Genre, weightBase)
	mood = knobMultiplier(w.Mood, weightBase)
	energy = knobMultiplier(w.Energy, weightBase)
	playlist = knobMultiplier(w.Playlist, weightBase)
	return
}

func knobMultiplier(knob, base float64) float64 {
	if knob <= 0 {
		return 1
	}
	return knob / base
}

// Score computes the affinity score for one candidate under the given
// profile, context modifiers, keywords, seed genres, behavior state,
// and weight knobs. Behavior may be nil, in which case the genre term
// falls back to the profile's static genre histogram. The result is
// deterministic and clamped to [0, MaxScore].
func Score(track Track, profile *PreferenceProfile, mods Modifiers, keywords, seedGenres []string, behavior *BehaviorState, weights Weights) float64 {
	if profile.Empty() {
		return 0
	}
	t := track.normalized()
	weatherMult, genreMult, moodMult, energyMult, playlistMult := weights.multipliers()

	var score float64

	// Similarity to the listener's library averages.
	tempoDiff := math.Abs(t.Tempo-profile.AvgTempo) / tempoNormalization
	score += (1 - math.Min(tempoDiff, 1)) * similarityTermWeight
	score += (1 - math.Abs(t.Energy-profile.AvgEnergy)) * similarityTermWeight
	score += (1 - math.Abs(t.Valence-profile.AvgValence)) * similarityTermWeight * moodMult
	score += (1 - math.Abs(t.Acousticness-profile.AvgAcousticness)) * similarityTermWeight
	score += (1 - math.Abs(t.Danceability-profile.AvgDanceability)) * similarityTermWeight

	score += genreTerm(t, profile, behavior, genreMult)
	score += playlistGenreBonus(t.Genres, seedGenres) * playlistMult
	score += contextMatch(t, mods, weatherMult, energyMult)

	if matchesKeyword(t, keywords) {
		score += keywordBonus
	}

	score += t.Popularity / 100 * popularityWeight
	if t.Source == SourceTrending {
		score += trendingBonus
	}

	return clamp(score, 0, MaxScore)
}

// genreTerm is the learned genre contribution when behavior state is
// available, or the static histogram share otherwise.
func genreTerm(t Track, profile *PreferenceProfile, behavior *BehaviorState, genreMult float64) float64 {
	if behavior != nil {
		term := (genreBaseTerm + behavior.GenreModifier(t.Genres)) * genreMult
		return clamp(term, 0, genreTermCeiling*genreMult)
	}
	if profile.TotalTracks == 0 {
		return 0
	}
	share := float64(profile.GenreCounts[t.PrimaryGenre()]) / float64(profile.TotalTracks)
	return share * genreBaseTerm * genreMult
}

// playlistGenreBonus rewards overlap between the track's genres and the
// seed playlist's genres, proportional to the overlapping share of the
// track's own tags.
func playlistGenreBonus(trackGenres, seedGenres []string) float64 {
	if len(trackGenres) == 0 || len(seedGenres) == 0 {
		return 0
	}
	seeds := make(map[string]struct{}, len(seedGenres))
	for _, g := range seedGenres {
		seeds[strings.ToLower(g)] = struct{}{}
	}
	var overlap int
	for _, g := range trackGenres {
		if _, ok := seeds[strings.ToLower(g)]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(trackGenres)) * playlistBonusWeight
}

// contextMatch awards increments when a track's descriptors line up
// with what the combined modifiers are asking for. All increments scale
// with the weather knob; energy and danceability additionally scale
// with the energy knob.
func contextMatch(t Track, mods Modifiers, weatherMult, energyMult float64) float64 {
	var score float64

	if (mods.Energy > modifierGate && t.Energy > highDescriptor) ||
		(mods.Energy < -modifierGate && t.Energy < lowDescriptor) {
		score += energyMatchIncrement * energyMult * weatherMult
	}
	if (mods.Valence > modifierGate && t.Valence > highDescriptor) ||
		(mods.Valence < -modifierGate && t.Valence < lowDescriptor) {
		score += valenceMatchIncrement * weatherMult
	}
	if (mods.Tempo > modifierGate && t.Tempo > fastTempoCutoff) ||
		(mods.Tempo < tempoSlowGate && t.Tempo < slowTempoCutoff) {
		score += tempoMatchIncrement * weatherMult
	}
	if mods.Acousticness > acousticGate && t.Acousticness > highAcoustic {
		score += acousticIncrement * weatherMult
	}
	if mods.Danceability > danceGate && t.Danceability > highDescriptor {
		score += danceIncrement * energyMult * weatherMult
	}

	return score
}

// matchesKeyword reports whether any keyword appears in the track's
// genre tags, title, or artist, case-insensitively. First match wins.
func matchesKeyword(t Track, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	title := strings.ToLower(t.Title)
	artist := strings.ToLower(t.Artist)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		for _, genre := range t.Genres {
			if strings.Contains(strings.ToLower(genre), kw) {
				return true
			}
		}
		if strings.Contains(title, kw) || strings.Contains(artist, kw) {
			return true
		}
	}
	return false
}
