// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package spotify

import (
	"context"
	"sort"

	"github.com/atmotune/atmotune/internal/engine"
)

// trackObject is the upstream track wire shape, reduced to the fields
// the engine consumes.
type trackObject struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Artists []struct {
		Name   string   `json:"name"`
		Genres []string `json:"genres"`
	} `json:"artists"`
	Album struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
	Popularity int `json:"popularity"`
	DurationMS int `json:"duration_ms"`
}

// audioFeatures is the upstream analysis wire shape. Pointer fields
// distinguish absent values from genuine zeros.
type audioFeatures struct {
	ID           string   `json:"id"`
	Tempo        *float64 `json:"tempo"`
	Energy       *float64 `json:"energy"`
	Valence      *float64 `json:"valence"`
	Acousticness *float64 `json:"acousticness"`
	Danceability *float64 `json:"danceability"`
}

// toEngineTrack maps a wire track plus its (possibly nil) analysis to
// an engine candidate. Missing analysis degrades to neutral defaults
// rather than dropping the track.
func toEngineTrack(t trackObject, features *audioFeatures, source string) engine.Track {
	track := engine.Track{
		ID:           t.ID,
		Title:        t.Name,
		URI:          t.URI,
		DurationMS:   t.DurationMS,
		Popularity:   float64(t.Popularity),
		Source:       source,
		Tempo:        engine.DefaultTempo,
		Energy:       engine.DefaultDescriptor,
		Valence:      engine.DefaultDescriptor,
		Acousticness: engine.DefaultDescriptor,
		Danceability: engine.DefaultDescriptor,
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
		if len(t.Artists[0].Genres) > 0 {
			track.Genres = t.Artists[0].Genres
		}
	}
	if len(track.Genres) == 0 {
		track.Genres = []string{engine.UnknownGenre}
	}
	if len(t.Album.Images) > 0 {
		track.AlbumArt = t.Album.Images[0].URL
	}
	if features != nil {
		if features.Tempo != nil && *features.Tempo > 0 {
			track.Tempo = *features.Tempo
		}
		if features.Energy != nil {
			track.Energy = *features.Energy
		}
		if features.Valence != nil {
			track.Valence = *features.Valence
		}
		if features.Acousticness != nil {
			track.Acousticness = *features.Acousticness
		}
		if features.Danceability != nil {
			track.Danceability = *features.Danceability
		}
	}
	return track
}

// FetchLibrary assembles the listener's scoring library: every
// playlist track plus top tracks, deduplicated, with audio analysis
// attached. This is the expensive call behind library analysis.
func (c *Client) FetchLibrary(ctx context.Context, accessToken string) ([]engine.Track, error) {
	seen := make(map[string]trackObject)

	playlists, err := c.GetAllPlaylists(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	for _, pl := range playlists {
		tracks, err := c.GetAllPlaylistTracks(ctx, accessToken, pl.ID)
		if err != nil {
			c.logger.Warn().Err(err).Str("playlist", pl.ID).Msg("Skipping unreadable playlist")
			continue
		}
		for _, t := range tracks {
			seen[t.ID] = t
		}
	}

	top, err := c.GetTopTracks(ctx, accessToken, "")
	if err != nil {
		c.logger.Warn().Err(err).Msg("Top tracks unavailable, continuing with playlists only")
	}
	for _, t := range top {
		seen[t.ID] = t
	}

	if len(seen) == 0 {
		return []engine.Track{}, nil
	}

	ids := make([]string, 0, len(seen))
	wire := make([]trackObject, 0, len(seen))
	for id, t := range seen {
		ids = append(ids, id)
		wire = append(wire, t)
	}

	// Seed-based discovery: recommendations off the listener's most
	// popular tracks join the pool as trending candidates.
	discovery := c.fetchDiscovery(ctx, accessToken, wire, seen)
	for _, t := range discovery {
		ids = append(ids, t.ID)
	}

	features, err := c.GetAudioFeatures(ctx, accessToken, ids)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Audio analysis unavailable, using neutral defaults")
		features = nil
	}

	byID := make(map[string]*audioFeatures, len(features))
	for _, f := range features {
		if f != nil {
			byID[f.ID] = f
		}
	}

	library := make([]engine.Track, 0, len(wire)+len(discovery))
	for _, t := range wire {
		library = append(library, toEngineTrack(t, byID[t.ID], engine.SourceLibrary))
	}
	for _, t := range discovery {
		library = append(library, toEngineTrack(t, byID[t.ID], engine.SourceTrending))
	}
	c.logger.Info().
		Int("tracks", len(wire)).
		Int("discovery", len(discovery)).
		Int("playlists", len(playlists)).
		Msg("Library fetched")
	return library, nil
}

// fetchDiscovery returns recommendation tracks not already in the
// library. Failures degrade to no discovery candidates.
func (c *Client) fetchDiscovery(ctx context.Context, accessToken string, wire []trackObject, seen map[string]trackObject) []trackObject {
	seeds := make([]trackObject, len(wire))
	copy(seeds, wire)
	sort.Slice(seeds, func(i, j int) bool { return seeds[i].Popularity > seeds[j].Popularity })
	if len(seeds) > maxSeedTracks {
		seeds = seeds[:maxSeedTracks]
	}
	seedIDs := make([]string, 0, len(seeds))
	for _, t := range seeds {
		seedIDs = append(seedIDs, t.ID)
	}

	recs, err := c.Recommendations(ctx, accessToken, seedIDs)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Discovery unavailable, continuing with library only")
		return nil
	}

	var discovery []trackObject
	for _, t := range recs {
		if t.ID == "" {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		discovery = append(discovery, t)
	}
	return discovery
}
