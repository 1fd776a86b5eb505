// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/atmotune/atmotune/internal/config"
	"github.com/atmotune/atmotune/internal/engine"
	"github.com/atmotune/atmotune/internal/spotify"
	"github.com/atmotune/atmotune/internal/store"
	"github.com/atmotune/atmotune/internal/weather"
)

// Catalogue is the upstream music provider surface the handlers need.
// *spotify.Client satisfies it; tests substitute a fake.
type Catalogue interface {
	AuthorizationURL(codeChallenge, state string) string
	ExchangeCode(ctx context.Context, code, verifier string) (spotify.Token, error)
	Refresh(ctx context.Context, refreshToken string) (spotify.Token, error)
	FetchLibrary(ctx context.Context, accessToken string) ([]engine.Track, error)
	SearchTracks(ctx context.Context, accessToken, query string, limit int) ([]engine.Track, error)
	GetUserProfile(ctx context.Context, accessToken string) (*spotify.UserProfile, error)
	GetAllPlaylists(ctx context.Context, accessToken string) ([]spotify.Playlist, error)
	Play(ctx context.Context, accessToken string, uris []string) error
	Pause(ctx context.Context, accessToken string) error
	SkipNext(ctx context.Context, accessToken string) error
	SkipPrevious(ctx context.Context, accessToken string) error
	CurrentPlayback(ctx context.Context, accessToken string) (*spotify.PlaybackState, error)
	Devices(ctx context.Context, accessToken string) ([]spotify.Device, error)
}

// WeatherSource resolves the listener's location and current
// conditions. *weather.Client satisfies it.
type WeatherSource interface {
	Locate(ctx context.Context) weather.Location
	Current(ctx context.Context, loc weather.Location) engine.WeatherSnapshot
}

// Handler processes HTTP requests for the queue server.
type Handler struct {
	store     *store.Store
	engine    *engine.Engine
	catalogue Catalogue
	weather   WeatherSource
	config    *config.Config
	logger    zerolog.Logger
	validate  *validator.Validate
	startTime time.Time
}

// NewHandler creates an API handler with its dependencies.
func NewHandler(st *store.Store, eng *engine.Engine, catalogue Catalogue, ws WeatherSource, cfg *config.Config, logger zerolog.Logger) *Handler {
	return &Handler{
		store:     st,
		engine:    eng,
		catalogue: catalogue,
		weather:   ws,
		config:    cfg,
		logger:    logger.With().Str("component", "api").Logger(),
		validate:  validator.New(),
		startTime: time.Now(),
	}
}

// freshToken returns a usable access token for the listener state,
// refreshing through the catalogue when expired. The state's token is
// updated in place so the caller's store.Update persists it.
func (h *Handler) freshToken(ctx context.Context, state *store.ListenerState) (string, error) {
	if state.Token.Valid() {
		return state.Token.AccessToken, nil
	}
	token, err := h.catalogue.Refresh(ctx, state.Token.RefreshToken)
	if err != nil {
		return "", err
	}
	state.Token = store.TokenData{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
	}
	return token.AccessToken, nil
}

// requireListener loads the listener state or responds 401.
func (h *Handler) requireListener(w http.ResponseWriter, r *http.Request, listenerID string) (*store.ListenerState, bool) {
	state, err := h.store.Get(r.Context(), listenerID)
	if err != nil {
		if errors.Is(err, store.ErrListenerNotFound) {
			respondError(w, http.StatusUnauthorized, "unauthorized", "Connect a music account first", nil)
		} else {
			respondError(w, http.StatusInternalServerError, "internal_error", "Failed to load listener state", err)
		}
		return nil, false
	}
	return state, true
}
