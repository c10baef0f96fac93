package app

import (
	"io"
	"log/slog"
)

// logLevels maps the configuration's level names onto slog levels. The
// name set is validated in NewConfig, for flag and settings-file values
// alike, so lookups here cannot miss.
var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// newLogger builds the app's logger from its validated configuration. It
// does not touch the global slog logger, so concurrent builds in one
// process keep isolated output.
func newLogger(cfg *Config, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevels[cfg.LogLevel]}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
