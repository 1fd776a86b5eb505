// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

// Package spotify is the upstream catalogue adapter: OAuth (PKCE),
// library and playlist reads, audio analysis, and playback control.
// All reads are rate limited client-side and wrapped in a circuit
// breaker; responses are mapped into engine types at the edge.
package spotify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/atmotune/atmotune/internal/metrics"
)

const apiBaseURL = "https://api.spotify.com/v1"

// Upstream paging limits.
const (
	playlistPageLimit = 50
	trackPageLimit    = 100
	featuresBatchSize = 100
	topTracksLimit    = 50
)

// Config controls the catalogue client.
type Config struct {
	ClientID    string
	RedirectURI string
	Timeout     time.Duration
	// RateLimit is the request budget per second; Burst the bucket
	// size. Spotify throttles aggressively at the default tier.
	RateLimit float64
	RateBurst int
}

// Client talks to the Spotify Web API.
type Client struct {
	cfg     Config
	http    *resty.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*resty.Response]
	logger  zerolog.Logger

	// overridable in tests
	baseURL  string
	tokenURL string
}

// NewClient creates a catalogue client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 20
	}

	settings := gobreaker.Settings{
		Name:    "spotify",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Client{
		cfg:      cfg,
		http:     resty.New().SetTimeout(cfg.Timeout),
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		breaker:  gobreaker.NewCircuitBreaker[*resty.Response](settings),
		logger:   logger.With().Str("component", "spotify").Logger(),
		baseURL:  apiBaseURL,
		tokenURL: tokenEndpoint,
	}
}

// get performs a rate-limited, circuit-broken GET against the API,
// decoding the JSON body into out.
func (c *Client) get(ctx context.Context, accessToken, path string, query map[string]string, out interface{}) error {
	return c.do(ctx, "GET", accessToken, path, query, nil, out)
}

func (c *Client) do(ctx context.Context, method, accessToken, path string, query map[string]string, body interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	_, err := c.breaker.Execute(func() (*resty.Response, error) {
		req := c.http.R().
			SetContext(ctx).
			SetAuthToken(accessToken)
		if query != nil {
			req.SetQueryParams(query)
		}
		if body != nil {
			req.SetBody(body)
		}
		if out != nil {
			req.SetResult(out)
		}
		resp, err := req.Execute(method, c.baseURL+path)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("spotify %s %s: %s", method, path, resp.Status())
		}
		return resp, nil
	})
	metrics.UpstreamRequestDuration.WithLabelValues("spotify", method+" "+path).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("spotify").Inc()
	}
	return err
}

// UserProfile is the authenticated listener's upstream identity.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// GetUserProfile fetches the authenticated user's profile.
func (c *Client) GetUserProfile(ctx context.Context, accessToken string) (*UserProfile, error) {
	var profile UserProfile
	if err := c.get(ctx, accessToken, "/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Playlist is a playlist summary.
type Playlist struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

type playlistPage struct {
	Items []Playlist `json:"items"`
	Next  string     `json:"next"`
}

// GetAllPlaylists fetches every playlist of the user, walking the
// pagination until exhausted.
func (c *Client) GetAllPlaylists(ctx context.Context, accessToken string) ([]Playlist, error) {
	var all []Playlist
	offset := 0
	for {
		var page playlistPage
		query := map[string]string{
			"limit":  fmt.Sprintf("%d", playlistPageLimit),
			"offset": fmt.Sprintf("%d", offset),
		}
		if err := c.get(ctx, accessToken, "/me/playlists", query, &page); err != nil {
			return nil, fmt.Errorf("fetch playlists: %w", err)
		}
		all = append(all, page.Items...)
		if page.Next == "" {
			return all, nil
		}
		offset += playlistPageLimit
	}
}

type playlistTracksPage struct {
	Items []struct {
		Track *trackObject `json:"track"`
	} `json:"items"`
	Next string `json:"next"`
}

// GetAllPlaylistTracks fetches every track of a playlist.
func (c *Client) GetAllPlaylistTracks(ctx context.Context, accessToken, playlistID string) ([]trackObject, error) {
	var all []trackObject
	offset := 0
	for {
		var page playlistTracksPage
		query := map[string]string{
			"limit":  fmt.Sprintf("%d", trackPageLimit),
			"offset": fmt.Sprintf("%d", offset),
		}
		path := "/playlists/" + playlistID + "/tracks"
		if err := c.get(ctx, accessToken, path, query, &page); err != nil {
			return nil, fmt.Errorf("fetch playlist tracks: %w", err)
		}
		for _, item := range page.Items {
			if item.Track != nil && item.Track.ID != "" {
				all = append(all, *item.Track)
			}
		}
		if page.Next == "" {
			return all, nil
		}
		offset += trackPageLimit
	}
}

type topTracksPage struct {
	Items []trackObject `json:"items"`
}

// GetTopTracks fetches the user's top tracks for a time range
// (short_term, medium_term, long_term).
func (c *Client) GetTopTracks(ctx context.Context, accessToken, timeRange string) ([]trackObject, error) {
	if timeRange == "" {
		timeRange = "medium_term"
	}
	var page topTracksPage
	query := map[string]string{
		"limit":      fmt.Sprintf("%d", topTracksLimit),
		"time_range": timeRange,
	}
	if err := c.get(ctx, accessToken, "/me/top/tracks", query, &page); err != nil {
		return nil, fmt.Errorf("fetch top tracks: %w", err)
	}
	return page.Items, nil
}

type audioFeaturesPage struct {
	AudioFeatures []*audioFeatures `json:"audio_features"`
}

// GetAudioFeatures fetches analysis for up to 100 tracks per upstream
// call, batching transparently. Result order matches the input IDs;
// tracks without analysis yield nil entries.
func (c *Client) GetAudioFeatures(ctx context.Context, accessToken string, trackIDs []string) ([]*audioFeatures, error) {
	all := make([]*audioFeatures, 0, len(trackIDs))
	for start := 0; start < len(trackIDs); start += featuresBatchSize {
		end := start + featuresBatchSize
		if end > len(trackIDs) {
			end = len(trackIDs)
		}
		var page audioFeaturesPage
		query := map[string]string{"ids": strings.Join(trackIDs[start:end], ",")}
		if err := c.get(ctx, accessToken, "/audio-features", query, &page); err != nil {
			return nil, fmt.Errorf("fetch audio features: %w", err)
		}
		all = append(all, page.AudioFeatures...)
	}
	return all, nil
}
