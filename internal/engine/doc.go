// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

// Package engine implements the adaptive queue engine: taste profiles
// built from a listener's library, weather and activity driven scoring
// modifiers, behavioral skip tracking, and shuffled queue generation.
//
// The package is deliberately free of I/O. All functions operate on
// values passed in by the caller, and all mutable state (BehaviorState)
// is owned and persisted by the caller. Given identical inputs, scoring
// and modifier computation are fully deterministic; queue shuffling uses
// an injectable seeded source so tests can pin the ordering.
package engine
