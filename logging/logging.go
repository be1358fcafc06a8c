// Package logging provides log level utilities for slog.
package logging

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds logging configuration
type Config struct {
	// Level is the default log level
	Level string `mapstructure:"level"`

	// Format selects the handler: "text" or "json"
	Format string `mapstructure:"format"`
}

// SetDefaults sets default logging configuration
func (c *Config) SetDefaults(v *viper.Viper, prefix string) {
	p := ""
	if prefix != "" {
		p = prefix + "."
	}
	v.SetDefault(p+"level", "info")
	v.SetDefault(p+"format", "text")
}

// ParseLevel converts a string to slog.Level
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a new logger with the configured level and format.
func NewLogger(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
