// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package api

import (
	"net/http"
	"time"

	"github.com/atmotune/atmotune/internal/middleware"
	"github.com/atmotune/atmotune/internal/models"
	"github.com/atmotune/atmotune/internal/spotify"
	"github.com/atmotune/atmotune/internal/store"
)

const (
	pkceCookieName  = "atmotune_pkce"
	stateCookieName = "atmotune_oauth_state"
	oauthCookieTTL  = 10 * time.Minute
)

func setOAuthCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(oauthCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearOAuthCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// AuthLogin starts the authorization code flow with PKCE. The verifier
// and state ride in short-lived HttpOnly cookies until the callback.
func (h *Handler) AuthLogin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	verifier, err := spotify.GenerateCodeVerifier()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to start authorization", err)
		return
	}
	state, err := spotify.GenerateCodeVerifier()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to start authorization", err)
		return
	}

	setOAuthCookie(w, pkceCookieName, verifier)
	setOAuthCookie(w, stateCookieName, state)

	authorizeURL := h.catalogue.AuthorizationURL(spotify.CodeChallenge(verifier), state)
	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{
		"authorize_url": authorizeURL,
	}, queryTimeSince(start)))
}

// AuthCallback completes the code exchange and persists the token set
// on the listener record.
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	listenerID := middleware.GetListenerID(r.Context())

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		respondError(w, http.StatusBadRequest, "bad_request", "Authorization was denied upstream", nil)
		return
	}

	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "Missing code or state parameter", nil)
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value != state {
		respondError(w, http.StatusBadRequest, "bad_request", "State mismatch, restart the login flow", nil)
		return
	}
	verifierCookie, err := r.Cookie(pkceCookieName)
	if err != nil || verifierCookie.Value == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "Missing code verifier, restart the login flow", nil)
		return
	}

	token, err := h.catalogue.ExchangeCode(r.Context(), code, verifierCookie.Value)
	if err != nil {
		respondError(w, http.StatusBadGateway, "upstream_error", "Token exchange failed", err)
		return
	}

	_, err = h.store.Update(r.Context(), listenerID, func(s *store.ListenerState) error {
		s.Token = store.TokenData{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			ExpiresAt:    token.ExpiresAt,
		}
		return nil
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to persist token", err)
		return
	}

	clearOAuthCookie(w, pkceCookieName)
	clearOAuthCookie(w, stateCookieName)

	h.logger.Info().Str("listener", listenerID).Msg("Music account connected")
	http.Redirect(w, r, "/", http.StatusFound)
}

// AuthStatus reports whether the listener has a usable connection and
// an analyzed library.
func (h *Handler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	listenerID := middleware.GetListenerID(r.Context())

	status := map[string]interface{}{
		"connected":        false,
		"library_analyzed": false,
	}
	if state, err := h.store.Get(r.Context(), listenerID); err == nil {
		status["connected"] = state.Token.AccessToken != ""
		status["token_valid"] = state.Token.Valid()
		status["library_analyzed"] = len(state.Library) > 0
		status["library_tracks"] = len(state.Library)
	}

	respondJSON(w, http.StatusOK, models.NewSuccessResponse(status, queryTimeSince(start)))
}

// AuthLogout drops the listener's token set. Listening history and
// behavior state survive so a reconnect picks up where it left off.
func (h *Handler) AuthLogout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	listenerID := middleware.GetListenerID(r.Context())

	_, err := h.store.Update(r.Context(), listenerID, func(s *store.ListenerState) error {
		s.Token = store.TokenData{}
		return nil
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", "Failed to disconnect", err)
		return
	}

	respondJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]interface{}{
		"disconnected": true,
	}, queryTimeSince(start)))
}
