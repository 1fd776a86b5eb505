// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/atmotune/atmotune/internal/engine"
)

const (
	maxSeedTracks  = 5
	discoveryLimit = 20
)

type recommendationsPage struct {
	Tracks []trackObject `json:"tracks"`
}

// Recommendations fetches seed-based track recommendations. At most
// five seed tracks are used; extras are dropped.
func (c *Client) Recommendations(ctx context.Context, accessToken string, seedTrackIDs []string) ([]trackObject, error) {
	if len(seedTrackIDs) == 0 {
		return nil, nil
	}
	if len(seedTrackIDs) > maxSeedTracks {
		seedTrackIDs = seedTrackIDs[:maxSeedTracks]
	}

	var page recommendationsPage
	query := map[string]string{
		"seed_tracks": strings.Join(seedTrackIDs, ","),
		"limit":       fmt.Sprintf("%d", discoveryLimit),
	}
	if err := c.get(ctx, accessToken, "/recommendations", query, &page); err != nil {
		return nil, fmt.Errorf("fetch recommendations: %w", err)
	}
	return page.Tracks, nil
}

type searchPage struct {
	Tracks struct {
		Items []trackObject `json:"items"`
	} `json:"tracks"`
}

// SearchTracks runs a track search against the catalogue.
func (c *Client) SearchTracks(ctx context.Context, accessToken, query string, limit int) ([]engine.Track, error) {
	if limit <= 0 || limit > topTracksLimit {
		limit = discoveryLimit
	}
	var page searchPage
	params := map[string]string{
		"q":     query,
		"type":  "track",
		"limit": fmt.Sprintf("%d", limit),
	}
	if err := c.get(ctx, accessToken, "/search", params, &page); err != nil {
		return nil, fmt.Errorf("search tracks: %w", err)
	}

	tracks := make([]engine.Track, 0, len(page.Tracks.Items))
	for _, t := range page.Tracks.Items {
		tracks = append(tracks, toEngineTrack(t, nil, engine.SourceTrending))
	}
	return tracks, nil
}
