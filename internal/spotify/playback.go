// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package spotify

import "context"

// PlaybackState is the current player status.
type PlaybackState struct {
	IsPlaying  bool `json:"is_playing"`
	ProgressMS int  `json:"progress_ms"`
	Item       *struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		DurationMS int    `json:"duration_ms"`
		URI        string `json:"uri"`
	} `json:"item"`
}

// Play starts or resumes playback, optionally with explicit URIs.
func (c *Client) Play(ctx context.Context, accessToken string, uris []string) error {
	var body interface{}
	if len(uris) > 0 {
		body = map[string]interface{}{"uris": uris}
	}
	return c.do(ctx, "PUT", accessToken, "/me/player/play", nil, body, nil)
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context, accessToken string) error {
	return c.do(ctx, "PUT", accessToken, "/me/player/pause", nil, nil, nil)
}

// SkipNext advances to the next track.
func (c *Client) SkipNext(ctx context.Context, accessToken string) error {
	return c.do(ctx, "POST", accessToken, "/me/player/next", nil, nil, nil)
}

// SkipPrevious returns to the previous track.
func (c *Client) SkipPrevious(ctx context.Context, accessToken string) error {
	return c.do(ctx, "POST", accessToken, "/me/player/previous", nil, nil, nil)
}

// Device is a playback target registered with the listener's account.
type Device struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	IsActive      bool   `json:"is_active"`
	VolumePercent int    `json:"volume_percent"`
}

// Devices lists the playback targets available to the listener.
func (c *Client) Devices(ctx context.Context, accessToken string) ([]Device, error) {
	var out struct {
		Devices []Device `json:"devices"`
	}
	if err := c.get(ctx, accessToken, "/me/player/devices", nil, &out); err != nil {
		return nil, err
	}
	return out.Devices, nil
}

// CurrentPlayback fetches the current player state. A 204 from the
// upstream (no active device) yields a zero state.
func (c *Client) CurrentPlayback(ctx context.Context, accessToken string) (*PlaybackState, error) {
	var state PlaybackState
	if err := c.get(ctx, accessToken, "/me/player", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
