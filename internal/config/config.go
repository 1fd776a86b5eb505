// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

// Package config loads and validates server configuration from layered
// sources: struct defaults, an optional YAML file, and environment
// variables, in ascending precedence.
package config

import (
	"fmt"
	"time"

	"github.com/atmotune/atmotune/internal/engine"
)

// Config is the root server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Spotify  SpotifyConfig  `koanf:"spotify"`
	Weather  WeatherConfig  `koanf:"weather"`
	Store    StoreConfig    `koanf:"store"`
	Engine   engine.Config  `koanf:"engine"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// SpotifyConfig holds the upstream catalogue credentials.
type SpotifyConfig struct {
	ClientID    string        `koanf:"client_id"`
	RedirectURI string        `koanf:"redirect_uri"`
	Timeout     time.Duration `koanf:"timeout"`
	// RateLimit is the client-side request budget per second.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// WeatherConfig holds the weather and geolocation provider settings.
type WeatherConfig struct {
	Timeout time.Duration `koanf:"timeout"`
	// FallbackLatitude and FallbackLongitude are used when IP
	// geolocation fails. Defaults point at San Francisco.
	FallbackLatitude  float64 `koanf:"fallback_latitude"`
	FallbackLongitude float64 `koanf:"fallback_longitude"`
	// CacheTTL bounds how long a fetched snapshot is reused.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// StoreConfig holds listener state persistence settings.
type StoreConfig struct {
	Path string `koanf:"path"`
	// InMemory runs BadgerDB without disk persistence. Used in tests
	// and throwaway deployments.
	InMemory bool `koanf:"in_memory"`
	// ListenerTTL is how long idle listener state is retained.
	ListenerTTL     time.Duration `koanf:"listener_ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	GCInterval      time.Duration `koanf:"gc_interval"`
}

// SecurityConfig holds rate limiting and CORS settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}
	if c.Spotify.Timeout <= 0 {
		return fmt.Errorf("spotify.timeout must be positive, got %v", c.Spotify.Timeout)
	}
	if c.Spotify.RateLimit <= 0 {
		return fmt.Errorf("spotify.rate_limit must be positive, got %v", c.Spotify.RateLimit)
	}
	if c.Weather.Timeout <= 0 {
		return fmt.Errorf("weather.timeout must be positive, got %v", c.Weather.Timeout)
	}
	if c.Store.Path == "" && !c.Store.InMemory {
		return fmt.Errorf("store.path is required when store.in_memory is false")
	}
	if c.Store.ListenerTTL <= 0 {
		return fmt.Errorf("store.listener_ttl must be positive, got %v", c.Store.ListenerTTL)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			return fmt.Errorf("security.rate_limit_reqs must be positive, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %v", c.Security.RateLimitWindow)
		}
	}
	return nil
}
