// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

// Package api provides the HTTP surface: routing, request decoding,
// and response envelopes. Handlers orchestrate the engine, store, and
// upstream clients; all scoring logic lives in the engine package.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atmotune/atmotune/internal/config"
	"github.com/atmotune/atmotune/internal/middleware"
)

// Router wires the handler set into a chi mux.
type Router struct {
	handler *Handler
	config  *config.Config
}

// NewRouter creates a router around a handler.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{handler: handler, config: cfg}
}

// Setup builds the full route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.config.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.ListenerID)
	r.Use(middleware.Metrics)

	rateLimit := func(next http.Handler) http.Handler { return next }
	if !router.config.Security.RateLimitDisabled {
		rateLimit = httprate.LimitByIP(router.config.Security.RateLimitReqs, router.config.Security.RateLimitWindow)
	}

	// Health probes stay outside the rate limiter so monitoring
	// never trips it.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(rateLimit)
		r.Get("/login", router.handler.AuthLogin)
		r.Get("/callback", router.handler.AuthCallback)
		r.Get("/status", router.handler.AuthStatus)
		r.Post("/logout", router.handler.AuthLogout)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit)

		r.Post("/library/analyze", router.handler.LibraryAnalyze)
		r.Post("/queue", router.handler.QueueGenerate)
		r.Post("/queue/next", router.handler.QueueNext)
		r.Post("/events/playback", router.handler.PlaybackEvent)
		r.Get("/behavior", router.handler.Behavior)
		r.Get("/search", router.handler.Search)
		r.Get("/profile", router.handler.Profile)
		r.Get("/playlists", router.handler.Playlists)
		r.Get("/weather/current", router.handler.WeatherCurrent)

		r.Route("/playback", func(r chi.Router) {
			r.Put("/play", router.handler.PlaybackPlay)
			r.Put("/pause", router.handler.PlaybackPause)
			r.Post("/next", router.handler.PlaybackNext)
			r.Post("/previous", router.handler.PlaybackPrevious)
			r.Get("/current", router.handler.PlaybackCurrent)
			r.Get("/devices", router.handler.PlaybackDevices)
		})
	})

	// OAuth redirect target matching the registered redirect URI.
	r.Get("/callback", router.handler.AuthCallback)

	r.Handle("/metrics", promhttp.Handler())

	return r
}
