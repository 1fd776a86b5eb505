// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package spotify

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	authEndpoint  = "https://accounts.spotify.com/authorize"
	tokenEndpoint = "https://accounts.spotify.com/api/token" //nolint:gosec // OAuth endpoint URL, not a credential
)

// scopes requested during authorization. Playback control and library
// reads both ride on the same grant.
var scopes = []string{
	"user-read-private",
	"user-read-email",
	"playlist-read-private",
	"playlist-read-collaborative",
	"user-library-read",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
	"streaming",
	"user-top-read",
}

// Token is an upstream OAuth token set.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Valid reports whether the access token is usable.
func (t Token) Valid() bool {
	return t.AccessToken != "" && time.Now().Before(t.ExpiresAt)
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// GenerateCodeVerifier returns a random PKCE code verifier.
func GenerateCodeVerifier() (string, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate code verifier: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CodeChallenge derives the S256 challenge from a verifier.
func CodeChallenge(verifier string) string {
	digest := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

// AuthorizationURL builds the user-facing authorization redirect.
func (c *Client) AuthorizationURL(codeChallenge, state string) string {
	params := url.Values{
		"client_id":             {c.cfg.ClientID},
		"response_type":         {"code"},
		"redirect_uri":          {c.cfg.RedirectURI},
		"scope":                 {strings.Join(scopes, " ")},
		"code_challenge_method": {"S256"},
		"code_challenge":        {codeChallenge},
		"state":                 {state},
	}
	return authEndpoint + "?" + params.Encode()
}

// ExchangeCode trades an authorization code for a token set.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (Token, error) {
	return c.requestToken(ctx, map[string]string{
		"client_id":     c.cfg.ClientID,
		"grant_type":    "authorization_code",
		"code":          code,
		"redirect_uri":  c.cfg.RedirectURI,
		"code_verifier": verifier,
	}, "")
}

// Refresh obtains a fresh access token. Spotify may omit the refresh
// token in the response; the previous one is preserved.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Token, error) {
	if refreshToken == "" {
		return Token{}, fmt.Errorf("no refresh token available")
	}
	return c.requestToken(ctx, map[string]string{
		"client_id":     c.cfg.ClientID,
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}, refreshToken)
}

func (c *Client) requestToken(ctx context.Context, form map[string]string, previousRefresh string) (Token, error) {
	var tr tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&tr).
		Post(c.tokenURL)
	if err != nil {
		return Token{}, fmt.Errorf("token request: %w", err)
	}
	if resp.IsError() {
		return Token{}, fmt.Errorf("token request failed: %s", resp.Status())
	}

	refresh := tr.RefreshToken
	if refresh == "" {
		refresh = previousRefresh
	}
	return Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}
