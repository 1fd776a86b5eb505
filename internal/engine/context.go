// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package engine

import "strings"

// Blend ratio between the weather and activity modifier vectors.
const (
	weatherBlend  = 0.6
	activityBlend = 0.4
)

// WeatherModifiers derives an adjustment vector from current conditions.
// Rules run in fixed order and each rule assigns its keys outright, so a
// later rule overwrites an earlier one: on a cold rainy day the
// precipitation rule owns energy, not the sum of cold and rain. An
// entirely zero snapshot means the weather client degraded; it is
// treated as mild (70°F, 50% humidity) so missing weather yields a
// gentle positive baseline. A genuine 0°F reading arrives alongside
// nonzero humidity or wind fields and is honored as-is.
func WeatherModifiers(w WeatherSnapshot) Modifiers {
	if w == (WeatherSnapshot{}) {
		w.Temperature = 70
		w.Humidity = 50
	}
	apparent := w.ApparentTemperature
	if apparent == 0 {
		apparent = w.Temperature
	}
	humidity := w.Humidity
	conditions := strings.ToLower(w.Conditions)

	var m Modifiers

	switch {
	case apparent < 40:
		m.Energy = 0.3
		m.Tempo = 0.2
		m.Valence = 0.2
	case apparent > 85:
		m.Energy = -0.2
		m.Acousticness = 0.2
		m.Valence = 0.3
	case apparent >= 60 && apparent <= 75:
		m.Valence = 0.3
		m.Danceability = 0.2
	}

	if w.Precipitation > 0.5 || w.CloudCover > 70 {
		m.Acousticness = 0.4
		m.Valence = -0.2
		m.Energy = -0.2
		m.Tempo = -0.1
	} else if w.CloudCover < 30 {
		m.Valence = 0.3
		m.Energy = 0.2
	}

	if w.WindGusts > 25 {
		m.Energy = 0.3
		m.Tempo = 0.2
	} else if w.WindSpeed < 5 {
		m.Acousticness = 0.2
		m.Energy = -0.1
	}

	if humidity > 80 {
		m.Energy = -0.2
		m.Tempo = -0.1
	}

	// Condition labels run last so they override the numeric rules.
	if strings.Contains(conditions, "storm") || strings.Contains(conditions, "thunder") {
		m.Energy = 0.4
		m.Tempo = 0.3
		m.Acousticness = -0.2
	}
	if strings.Contains(conditions, "snow") {
		m.Acousticness = 0.3
		m.Valence = 0.2
		m.Energy = -0.1
	}

	return m
}

// ActivityModifiers derives an adjustment vector from the declared
// activity and time of day. Each table row accepts a few common
// synonyms ("evening" counts as night); anything else contributes
// nothing.
func ActivityModifiers(ctx ActivityContext) Modifiers {
	var m Modifiers

	switch strings.ToLower(strings.TrimSpace(ctx.Activity)) {
	case "working out", "workout", "exercising":
		m.Energy += 0.5
		m.Tempo += 0.5
		m.Danceability += 0.4
	case "relaxing", "chilling":
		m.Energy -= 0.4
		m.Acousticness += 0.5
		m.Tempo -= 0.2
	case "focusing", "studying", "working":
		m.Acousticness += 0.4
		m.Energy -= 0.2
		m.Valence += 0.1
	case "party", "partying":
		m.Energy += 0.6
		m.Danceability += 0.5
		m.Valence += 0.4
	}

	switch strings.ToLower(strings.TrimSpace(ctx.TimeOfDay)) {
	case "morning":
		m.Energy += 0.3
		m.Valence += 0.3
		m.Tempo += 0.2
	case "night", "evening":
		m.Energy -= 0.3
		m.Acousticness += 0.3
		m.Tempo -= 0.1
	}

	return m
}

// CombineModifiers blends the weather and activity vectors at the
// fixed 0.6/0.4 ratio, field-wise.
func CombineModifiers(weather, activity Modifiers) Modifiers {
	return weather.scale(weatherBlend).add(activity.scale(activityBlend))
}
