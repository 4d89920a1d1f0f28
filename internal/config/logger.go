package config

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger builds the slog.Logger described by LogLevel and LogFormat.
// Unknown levels fall back to info.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	options := &slog.HandlerOptions{Level: c.level()}

	if c.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, options))
	}

	return slog.New(slog.NewTextHandler(w, options))
}

func (c Config) level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}

	return level
}
