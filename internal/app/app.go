package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/xenogen/internal/ctxlog"
	"github.com/vk/xenogen/internal/template"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *template.Registry
	config   *Config
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and a
// registry populated from the configured template tree. Scenario output
// goes to outW; logs go to logW so the two streams never interleave.
func NewApp(outW, logW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	registry := template.NewRegistry()
	if cfg.TemplatesPath != "" {
		var err error
		registry, err = template.LoadTree(ctx, cfg.TemplatesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load template tree: %w", err)
		}
		logger.Debug("Template registry populated.", "templates", len(registry.Names()))
	}

	return &App{
		outW:     outW,
		logger:   logger,
		registry: registry,
		config:   cfg,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *template.Registry {
	return a.registry
}
