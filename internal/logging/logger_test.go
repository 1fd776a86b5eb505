// Atmotune - Context-Aware Adaptive Music Queue Server
// Copyright 2026 Atmotune Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atmotune/atmotune

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"WARN", zerolog.WarnLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestGlobalLoggerWrites(t *testing.T) {
	// Not parallel: mutates global logger state.
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	Info().Str("key", "value").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, `"key":"value"`) {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestSlogAdapterWritesThrough(t *testing.T) {
	// Not parallel: mutates global logger state.
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))

	slogger := NewSlogLogger()
	slogger.Info("from slog", "count", 3)

	out := buf.String()
	if !strings.Contains(out, "from slog") {
		t.Errorf("slog message should reach zerolog: %s", out)
	}
	if !strings.Contains(out, `"count":3`) {
		t.Errorf("slog attrs should be carried: %s", out)
	}
}

func TestSlogAdapterLevelGate(t *testing.T) {
	// Not parallel: mutates global logger state.
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf).Level(zerolog.WarnLevel))

	slogger := NewSlogLogger()
	slogger.Info("should be dropped")
	slogger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Errorf("info should be gated at warn level: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn should pass: %s", out)
	}
}
