// Package logging builds the structured logger used throughout the
// pipeline, the same role tugsousa-Rumoclaro's logger package and
// Sketchyjo-STACK-BACKEND-SERVICE's zap wiring play in their repos.
package logging

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.Logger at the given level ("debug", "info", "warn",
// "error", or zap's "dpanic", "panic", "fatal"; anything else defaults to
// "info"). Encoding is JSON, matching
// the structured-log convention this corpus uses for anything that isn't a
// human-attended CLI prompt.
func New(levelStr string) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(levelStr)))); err != nil {
		level = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

// Nop returns a logger that discards everything, for tests that don't care
// about log output.
func Nop() *zap.Logger { return zap.NewNop() }
