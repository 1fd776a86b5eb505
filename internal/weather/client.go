// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

// Package weather fetches current conditions from Open-Meteo and
// resolves the listener's location via IP geolocation. Failures
// degrade to neutral fallbacks rather than surfacing as engine errors.
package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/atmotune/atmotune/internal/engine"
	"github.com/atmotune/atmotune/internal/metrics"
)

const (
	openMeteoURL   = "https://api.open-meteo.com/v1/forecast"
	geolocationURL = "http://ip-api.com/json"
)

// Config controls the weather client.
type Config struct {
	Timeout time.Duration
	// FallbackLatitude and FallbackLongitude are used when IP
	// geolocation fails.
	FallbackLatitude  float64
	FallbackLongitude float64
	// CacheTTL bounds how long a fetched snapshot is reused.
	CacheTTL time.Duration
}

// Location is a resolved geographic position.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	Region    string  `json:"region,omitempty"`
	Fallback  bool    `json:"fallback,omitempty"`
}

type geolocationResponse struct {
	Status string  `json:"status"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	City   string  `json:"city"`
	Region string  `json:"regionName"`
}

type openMeteoResponse struct {
	Current struct {
		Temperature         float64 `json:"temperature_2m"`
		ApparentTemperature float64 `json:"apparent_temperature"`
		Humidity            float64 `json:"relative_humidity_2m"`
		Precipitation       float64 `json:"precipitation"`
		WeatherCode         int     `json:"weather_code"`
		CloudCover          float64 `json:"cloud_cover"`
		WindSpeed           float64 `json:"wind_speed_10m"`
		WindGusts           float64 `json:"wind_gusts_10m"`
	} `json:"current"`
}

// Client fetches weather and location with circuit breaking and a
// short-lived snapshot cache.
type Client struct {
	cfg     Config
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker[*resty.Response]
	logger  zerolog.Logger

	// overridable in tests
	meteoURL string
	geoURL   string

	cache cacheEntry
}

// NewClient creates a weather client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	settings := gobreaker.Settings{
		Name:    "weather",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Client{
		cfg:      cfg,
		http:     httpClient,
		breaker:  gobreaker.NewCircuitBreaker[*resty.Response](settings),
		logger:   logger.With().Str("component", "weather").Logger(),
		meteoURL: openMeteoURL,
		geoURL:   geolocationURL,
	}
}

// Locate resolves the server's public location by IP. On any failure
// it returns the configured fallback position.
func (c *Client) Locate(ctx context.Context) Location {
	start := time.Now()
	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		var geo geolocationResponse
		r, err := c.http.R().
			SetContext(ctx).
			SetResult(&geo).
			Get(c.geoURL)
		if err != nil {
			return nil, err
		}
		if r.IsError() || geo.Status != "success" {
			return nil, fmt.Errorf("geolocation lookup failed: %s", r.Status())
		}
		return r, nil
	})
	metrics.UpstreamRequestDuration.WithLabelValues("geolocation", "locate").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("geolocation").Inc()
		c.logger.Warn().Err(err).Msg("Geolocation failed, using fallback location")
		return Location{
			Latitude:  c.cfg.FallbackLatitude,
			Longitude: c.cfg.FallbackLongitude,
			City:      "San Francisco",
			Fallback:  true,
		}
	}

	geo := resp.Result().(*geolocationResponse)
	return Location{
		Latitude:  geo.Lat,
		Longitude: geo.Lon,
		City:      geo.City,
		Region:    geo.Region,
	}
}

// Current fetches current conditions for a position. Failures degrade
// to a zero-value snapshot, which the engine treats as mild weather.
func (c *Client) Current(ctx context.Context, loc Location) engine.WeatherSnapshot {
	if snap, ok := c.cached(); ok {
		return snap
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		var meteo openMeteoResponse
		r, err := c.http.R().
			SetContext(ctx).
			SetResult(&meteo).
			SetQueryParams(map[string]string{
				"latitude":         fmt.Sprintf("%.4f", loc.Latitude),
				"longitude":        fmt.Sprintf("%.4f", loc.Longitude),
				"current":          "temperature_2m,relative_humidity_2m,apparent_temperature,precipitation,weather_code,cloud_cover,wind_speed_10m,wind_gusts_10m",
				"temperature_unit": "fahrenheit",
				"wind_speed_unit":  "mph",
			}).
			Get(c.meteoURL)
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, fmt.Errorf("weather lookup failed: %s", r.Status())
		}
		return r, nil
	})
	metrics.UpstreamRequestDuration.WithLabelValues("open-meteo", "current").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("open-meteo").Inc()
		c.logger.Warn().Err(err).Msg("Weather fetch failed, degrading to neutral conditions")
		return engine.WeatherSnapshot{}
	}

	meteo := resp.Result().(*openMeteoResponse)
	snap := engine.WeatherSnapshot{
		Temperature:         meteo.Current.Temperature,
		ApparentTemperature: meteo.Current.ApparentTemperature,
		Humidity:            meteo.Current.Humidity,
		WindSpeed:           meteo.Current.WindSpeed,
		WindGusts:           meteo.Current.WindGusts,
		CloudCover:          meteo.Current.CloudCover,
		Precipitation:       meteo.Current.Precipitation,
		Conditions:          ConditionFromCode(meteo.Current.WeatherCode),
		Location:            loc.City,
	}
	c.store(snap)
	return snap
}

// ConditionFromCode maps WMO weather codes to condition labels.
func ConditionFromCode(code int) string {
	switch code {
	case 0, 1:
		return "clear"
	case 2:
		return "partly_cloudy"
	case 3:
		return "cloudy"
	case 45, 48:
		return "foggy"
	case 51, 53, 55:
		return "drizzle"
	case 61, 63, 65, 80, 81, 82:
		return "rainy"
	case 71, 73, 75, 77, 85, 86:
		return "snowy"
	case 95, 96, 99:
		return "stormy"
	default:
		return "unknown"
	}
}
