// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package spotify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/atmotune/atmotune/internal/engine"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		ClientID:    "client-123",
		RedirectURI: "http://localhost/callback",
		Timeout:     time.Second,
		RateLimit:   1000,
		RateBurst:   1000,
	}, zerolog.Nop())
	c.baseURL = srv.URL
	c.tokenURL = srv.URL + "/api/token"
	return c
}

func TestCodeChallenge(t *testing.T) {
	t.Parallel()

	// S256("test") is a fixed value.
	if got := CodeChallenge("test"); got != "n4bQgYhMfWWaL-qgxVrQFaO_TxsrC4Is0V1sFbDwCgg" {
		t.Errorf("CodeChallenge(test) = %q", got)
	}
}

func TestGenerateCodeVerifier(t *testing.T) {
	t.Parallel()

	a, err := GenerateCodeVerifier()
	if err != nil {
		t.Fatalf("GenerateCodeVerifier() error = %v", err)
	}
	b, err := GenerateCodeVerifier()
	if err != nil {
		t.Fatalf("GenerateCodeVerifier() error = %v", err)
	}
	if a == b {
		t.Error("verifiers should be random")
	}
	if len(a) < 43 {
		t.Errorf("verifier too short: %d chars", len(a))
	}
}

func TestAuthorizationURL(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{ClientID: "client-123", RedirectURI: "http://localhost/callback"}, zerolog.Nop())
	u := c.AuthorizationURL("challenge-abc", "state-xyz")

	for _, want := range []string{
		"client_id=client-123",
		"code_challenge=challenge-abc",
		"code_challenge_method=S256",
		"state=state-xyz",
		"response_type=code",
	} {
		if !strings.Contains(u, want) {
			t.Errorf("authorization URL missing %q: %s", want, u)
		}
	}
}

func TestExchangeCode(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostFormValue("grant_type") != "authorization_code" {
			t.Errorf("grant_type = %q", r.PostFormValue("grant_type"))
		}
		if r.PostFormValue("code_verifier") != "verifier" {
			t.Errorf("code_verifier = %q", r.PostFormValue("code_verifier"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600}`))
	})
	c := newTestClient(t, mux)

	token, err := c.ExchangeCode(context.Background(), "code", "verifier")
	if err != nil {
		t.Fatalf("ExchangeCode() error = %v", err)
	}
	if token.AccessToken != "at" || token.RefreshToken != "rt" {
		t.Errorf("token = %+v", token)
	}
	if !token.Valid() {
		t.Error("freshly issued token should be valid")
	}
}

func TestRefreshPreservesRefreshToken(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		// Spotify may omit refresh_token on refresh.
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at2","expires_in":3600}`))
	})
	c := newTestClient(t, mux)

	token, err := c.Refresh(context.Background(), "old-refresh")
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if token.RefreshToken != "old-refresh" {
		t.Errorf("RefreshToken = %q, want preserved old-refresh", token.RefreshToken)
	}
}

func TestRefreshWithoutToken(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{}, zerolog.Nop())
	if _, err := c.Refresh(context.Background(), ""); err == nil {
		t.Error("Refresh() without a refresh token should fail")
	}
}

func TestGetAllPlaylistsPaginates(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/me/playlists", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("offset") == "0" {
			_, _ = fmt.Fprintf(w, `{"items":[{"id":"p1","name":"One"}],"next":"%s"}`, "more")
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"id":"p2","name":"Two"}],"next":null}`))
	})
	c := newTestClient(t, mux)

	playlists, err := c.GetAllPlaylists(context.Background(), "tok")
	if err != nil {
		t.Fatalf("GetAllPlaylists() error = %v", err)
	}
	if len(playlists) != 2 || playlists[0].ID != "p1" || playlists[1].ID != "p2" {
		t.Errorf("playlists = %+v, want p1 then p2", playlists)
	}
}

func TestGetAudioFeaturesBatches(t *testing.T) {
	t.Parallel()

	var batches []int
	mux := http.NewServeMux()
	mux.HandleFunc("/audio-features", func(w http.ResponseWriter, r *http.Request) {
		ids := strings.Split(r.URL.Query().Get("ids"), ",")
		batches = append(batches, len(ids))
		w.Header().Set("Content-Type", "application/json")
		out := `{"audio_features":[`
		for i, id := range ids {
			if i > 0 {
				out += ","
			}
			out += fmt.Sprintf(`{"id":%q,"tempo":120}`, id)
		}
		out += `]}`
		_, _ = w.Write([]byte(out))
	})
	c := newTestClient(t, mux)

	ids := make([]string, 150)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%d", i)
	}
	features, err := c.GetAudioFeatures(context.Background(), "tok", ids)
	if err != nil {
		t.Fatalf("GetAudioFeatures() error = %v", err)
	}
	if len(features) != 150 {
		t.Errorf("features = %d, want 150", len(features))
	}
	if len(batches) != 2 || batches[0] != 100 || batches[1] != 50 {
		t.Errorf("batches = %v, want [100 50]", batches)
	}
}

func TestToEngineTrackDefaults(t *testing.T) {
	t.Parallel()

	// No artists, no analysis: the track degrades to neutral defaults.
	track := toEngineTrack(trackObject{ID: "x", Name: "Song"}, nil, engine.SourceLibrary)
	if track.Tempo != engine.DefaultTempo {
		t.Errorf("Tempo = %v, want default %v", track.Tempo, engine.DefaultTempo)
	}
	if track.Energy != engine.DefaultDescriptor {
		t.Errorf("Energy = %v, want default %v", track.Energy, engine.DefaultDescriptor)
	}
	if len(track.Genres) != 1 || track.Genres[0] != engine.UnknownGenre {
		t.Errorf("Genres = %v, want [%s]", track.Genres, engine.UnknownGenre)
	}
}

func TestToEngineTrackMapsAnalysis(t *testing.T) {
	t.Parallel()

	tempo := 98.5
	energy := 0.0 // a genuine zero must survive, not be defaulted
	f := &audioFeatures{ID: "x", Tempo: &tempo, Energy: &energy}
	wire := trackObject{ID: "x", Name: "Song", Popularity: 73}
	wire.Artists = append(wire.Artists, struct {
		Name   string   `json:"name"`
		Genres []string `json:"genres"`
	}{Name: "Artist", Genres: []string{"shoegaze", "dream pop"}})

	track := toEngineTrack(wire, f, engine.SourceTrending)
	if track.Tempo != 98.5 {
		t.Errorf("Tempo = %v, want 98.5", track.Tempo)
	}
	if track.Energy != 0 {
		t.Errorf("Energy = %v, want the genuine 0", track.Energy)
	}
	if track.Valence != engine.DefaultDescriptor {
		t.Errorf("Valence = %v, want default for the absent field", track.Valence)
	}
	if track.Artist != "Artist" || track.Genres[0] != "shoegaze" {
		t.Errorf("artist mapping wrong: %+v", track)
	}
	if track.Popularity != 73 || track.Source != engine.SourceTrending {
		t.Errorf("popularity/source mapping wrong: %+v", track)
	}
}

func TestRecommendationsTruncatesSeeds(t *testing.T) {
	t.Parallel()

	var gotSeeds string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recommendations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotSeeds = r.URL.Query().Get("seed_tracks")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"tracks":[{"id":"rec1","name":"Found"}]}`)
	}))

	seeds := []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7"}
	recs, err := c.Recommendations(context.Background(), "token", seeds)
	if err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}
	if gotSeeds != "s1,s2,s3,s4,s5" {
		t.Errorf("seed_tracks = %q, want first five", gotSeeds)
	}
	if len(recs) != 1 || recs[0].ID != "rec1" {
		t.Errorf("recs = %+v", recs)
	}
}

func TestRecommendationsNoSeeds(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without seeds")
	}))
	recs, err := c.Recommendations(context.Background(), "token", nil)
	if err != nil || recs != nil {
		t.Errorf("Recommendations() = %v, %v, want nil, nil", recs, err)
	}
}

func TestSearchTracksMapsTrending(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query().Get("q"); q != "rainy jazz" {
			t.Errorf("q = %q", q)
		}
		if typ := r.URL.Query().Get("type"); typ != "track" {
			t.Errorf("type = %q", typ)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"tracks":{"items":[{"id":"t1","name":"Cafe Rain","popularity":40}]}}`)
	}))

	tracks, err := c.SearchTracks(context.Background(), "token", "rainy jazz", 10)
	if err != nil {
		t.Fatalf("SearchTracks() error = %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("tracks = %d, want 1", len(tracks))
	}
	if tracks[0].Source != engine.SourceTrending {
		t.Errorf("source = %q, want trending", tracks[0].Source)
	}
	if tracks[0].Tempo != engine.DefaultTempo {
		t.Errorf("tempo = %v, want default without analysis", tracks[0].Tempo)
	}
}
