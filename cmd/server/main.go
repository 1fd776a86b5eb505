// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

// Command server runs the Atmotune queue server: the scoring engine,
// the listener store, the Spotify and weather clients, and the HTTP
// API, all under a suture supervisor tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"github.com/atmotune/atmotune/internal/api"
	"github.com/atmotune/atmotune/internal/config"
	"github.com/atmotune/atmotune/internal/engine"
	"github.com/atmotune/atmotune/internal/logging"
	"github.com/atmotune/atmotune/internal/spotify"
	"github.com/atmotune/atmotune/internal/store"
	"github.com/atmotune/atmotune/internal/supervisor"
	"github.com/atmotune/atmotune/internal/supervisor/services"
	"github.com/atmotune/atmotune/internal/weather"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited")
	}
}

func run() error {
	// A .env file is optional; environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logger := logging.Logger()
	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Bool("in_memory_store", cfg.Store.InMemory).
		Msg("Starting Atmotune")

	opts := badger.DefaultOptions(cfg.Store.Path).WithLogger(nil)
	if cfg.Store.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Store close failed")
		}
	}()

	listenerStore := store.New(db, logger)

	eng, err := engine.NewEngine(&cfg.Engine, logger)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	catalogue := spotify.NewClient(spotify.Config{
		ClientID:    cfg.Spotify.ClientID,
		RedirectURI: cfg.Spotify.RedirectURI,
		Timeout:     cfg.Spotify.Timeout,
		RateLimit:   cfg.Spotify.RateLimit,
		RateBurst:   cfg.Spotify.RateBurst,
	}, logger)

	weatherClient := weather.NewClient(weather.Config{
		Timeout:           cfg.Weather.Timeout,
		FallbackLatitude:  cfg.Weather.FallbackLatitude,
		FallbackLongitude: cfg.Weather.FallbackLongitude,
		CacheTTL:          cfg.Weather.CacheTTL,
	}, logger)

	handler := api.NewHandler(listenerStore, eng, catalogue, weatherClient, cfg, logger)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	tree.AddMaintenanceService(services.NewCleanupService(listenerStore, cfg.Store.ListenerTTL, cfg.Store.CleanupInterval, logger))
	if !cfg.Store.InMemory {
		tree.AddMaintenanceService(services.NewGCService(listenerStore, cfg.Store.GCInterval, logger))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Serving")
	errCh := tree.ServeBackground(ctx)
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}
