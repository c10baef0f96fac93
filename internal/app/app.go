package app

import (
	"io"
	"log/slog"
)

// App encapsulates one graph build's dependencies, configuration, and
// lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
}

// New is the constructor for the application. The returned App carries its
// own isolated logger, so concurrent builds in one process never share
// state.
func New(outW io.Writer, config *Config) *App {
	return &App{
		outW:   outW,
		logger: newLogger(config, outW),
		config: config,
	}
}

// Logger returns the app's logger. This is primarily for testing.
func (a *App) Logger() *slog.Logger { return a.logger }
