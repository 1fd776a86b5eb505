// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package engine

import "fmt"

// Pool and queue sizing bounds.
const (
	DefaultQueueSize = 10
	MaxQueueSize     = 50
	DefaultPoolSize  = 20
	MinPoolSize      = 15
	MaxPoolSize      = 20
)

// Config controls queue generation.
type Config struct {
	// QueueSize is the default queue length when a request does not
	// specify one. Default: 10
	QueueSize int `koanf:"queue_size" json:"queue_size"`

	// PoolSize is how many top-scored candidates enter the shuffle
	// pool before truncation. Must lie in [15, 20]. Default: 20
	PoolSize int `koanf:"pool_size" json:"pool_size"`

	// Seed seeds the shuffle source. Zero selects the default seed;
	// tests inject a fixed seed for deterministic ordering.
	Seed int64 `koanf:"seed" json:"seed"`

	// Weights are the default scoring knobs applied when a request
	// carries none.
	Weights Weights `koanf:"weights" json:"weights"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		QueueSize: DefaultQueueSize,
		PoolSize:  DefaultPoolSize,
		Weights:   DefaultWeights(),
	}
}

// Validate checks configuration bounds.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if c.QueueSize < 1 || c.QueueSize > MaxQueueSize {
		return fmt.Errorf("queue_size must be in [1, %d], got %d", MaxQueueSize, c.QueueSize)
	}
	if c.PoolSize < MinPoolSize || c.PoolSize > MaxPoolSize {
		return fmt.Errorf("pool_size must be in [%d, %d], got %d", MinPoolSize, MaxPoolSize, c.PoolSize)
	}
	if c.Seed < 0 {
		return fmt.Errorf("seed must be non-negative, got %d", c.Seed)
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
