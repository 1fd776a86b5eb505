// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package engine

import "time"

// Track source labels. Library tracks come from the listener's own
// playlists and top tracks; trending tracks come from editorial or
// chart sources and receive a small scoring bonus.
const (
	SourceLibrary  = "library"
	SourceTrending = "trending"
)

// Neutral fallbacks applied when a catalogue entry arrives without
// usable audio analysis.
const (
	DefaultTempo      = 120.0
	DefaultDescriptor = 0.5
	DefaultPopularity = 50.0
	UnknownGenre      = "Unknown"
)

// Track is a scoring candidate. Audio descriptors live in [0,1],
// tempo is in BPM, popularity in [0,100].
type Track struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Artist       string   `json:"artist"`
	Genres       []string `json:"genres,omitempty"`
	Tempo        float64  `json:"tempo"`
	Energy       float64  `json:"energy"`
	Valence      float64  `json:"valence"`
	Acousticness float64  `json:"acousticness"`
	Danceability float64  `json:"danceability"`
	Popularity   float64  `json:"popularity"`
	DurationMS   int      `json:"duration_ms,omitempty"`
	URI          string   `json:"uri,omitempty"`
	AlbumArt     string   `json:"album_art,omitempty"`
	Source       string   `json:"source,omitempty"`
}

// PrimaryGenre returns the track's first genre tag, or UnknownGenre
// when the track carries none.
func (t *Track) PrimaryGenre() string {
	if len(t.Genres) == 0 || t.Genres[0] == "" {
		return UnknownGenre
	}
	return t.Genres[0]
}

// normalized returns a copy with malformed fields replaced by neutral
// defaults: non-positive tempo becomes DefaultTempo, descriptors are
// clamped to [0,1], popularity to [0,100].
func (t Track) normalized() Track {
	if t.Tempo <= 0 {
		t.Tempo = DefaultTempo
	}
	t.Energy = clamp(t.Energy, 0, 1)
	t.Valence = clamp(t.Valence, 0, 1)
	t.Acousticness = clamp(t.Acousticness, 0, 1)
	t.Danceability = clamp(t.Danceability, 0, 1)
	t.Popularity = clamp(t.Popularity, 0, 100)
	return t
}

// ScoredTrack pairs a candidate with its score.
type ScoredTrack struct {
	Track Track   `json:"track"`
	Score float64 `json:"score"`
}

// PreferenceProfile summarizes a listener's library: arithmetic means
// of the five audio descriptors plus a primary-genre histogram.
type PreferenceProfile struct {
	AvgTempo        float64        `json:"avg_tempo"`
	AvgEnergy       float64        `json:"avg_energy"`
	AvgValence      float64        `json:"avg_valence"`
	AvgAcousticness float64        `json:"avg_acousticness"`
	AvgDanceability float64        `json:"avg_danceability"`
	GenreCounts     map[string]int `json:"genre_counts"`
	TotalTracks     int            `json:"total_tracks"`
	BuiltAt         time.Time      `json:"built_at,omitempty"`
}

// Empty reports whether the profile carries no usable signal.
func (p *PreferenceProfile) Empty() bool {
	return p == nil || p.TotalTracks == 0
}

// WeatherSnapshot is the current conditions at the listener's location.
// Temperature values are Fahrenheit, wind speeds mph, humidity and
// cloud cover percentages, precipitation a 0..1 intensity fraction.
type WeatherSnapshot struct {
	Temperature         float64 `json:"temperature"`
	ApparentTemperature float64 `json:"apparent_temperature"`
	Humidity            float64 `json:"humidity"`
	WindSpeed           float64 `json:"wind_speed"`
	WindGusts           float64 `json:"wind_gusts"`
	CloudCover          float64 `json:"cloud_cover"`
	Precipitation       float64 `json:"precipitation"`
	Conditions          string  `json:"conditions,omitempty"`
	Location            string  `json:"location,omitempty"`
}

// ActivityContext is the listener-declared situation: what they are
// doing and the rough time of day. Labels are free-form; anything the
// modifier tables do not recognize contributes nothing.
type ActivityContext struct {
	Activity  string `json:"activity,omitempty"`
	TimeOfDay string `json:"time_of_day,omitempty"`
}

// Modifiers is the additive adjustment vector produced by the context
// rules. Fields may be negative; a zero value is the neutral baseline.
type Modifiers struct {
	Energy       float64 `json:"energy_boost"`
	Valence      float64 `json:"valence_boost"`
	Tempo        float64 `json:"tempo_boost"`
	Acousticness float64 `json:"acousticness_boost"`
	Danceability float64 `json:"danceability_boost"`
}

func (m Modifiers) add(o Modifiers) Modifiers {
	m.Energy += o.Energy
	m.Valence += o.Valence
	m.Tempo += o.Tempo
	m.Acousticness += o.Acousticness
	m.Danceability += o.Danceability
	return m
}

func (m Modifiers) scale(f float64) Modifiers {
	m.Energy *= f
	m.Valence *= f
	m.Tempo *= f
	m.Acousticness *= f
	m.Danceability *= f
	return m
}

// Request is a queue generation request. Behavior and Weights are
// optional; a nil Behavior falls back to static genre-histogram scoring
// and a nil Weights uses DefaultWeights.
type Request struct {
	Tracks     []Track
	Profile    *PreferenceProfile
	Weather    WeatherSnapshot
	Context    ActivityContext
	Keywords   []string
	SeedGenres []string
	Size       int
	Behavior   *BehaviorState
	Weights    *Weights
}

// Result is a generated queue plus the residual candidate pool. Queue
// and Pool together contain every scored input track exactly once.
type Result struct {
	Queue     []ScoredTrack `json:"queue"`
	Pool      []ScoredTrack `json:"pool"`
	Modifiers Modifiers     `json:"modifiers"`
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
