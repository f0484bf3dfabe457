// Package app wires the pipeline loader, the runner registry, and the engine
// into a runnable application.
package app

import (
	"errors"
	"io"
	"log/slog"

	"github.com/vk/taskgrid/internal/config"
	"github.com/vk/taskgrid/internal/ctxlog"
	"github.com/vk/taskgrid/internal/runner"
)

// Config holds everything an App needs to run a pipeline.
type Config struct {
	// PipelinePath is a .hcl file or a directory of .hcl files.
	PipelinePath string

	// Mode overrides the pipeline's engine mode when non-empty.
	Mode string

	// CPUs, RAMMB, Workers, and PollMS override the pipeline's engine
	// block when positive. Zero means "use the pipeline's value, or the
	// engine's own default".
	CPUs    int
	RAMMB   int
	Workers int
	PollMS  int

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.CPUs < 0 || cfg.RAMMB < 0 || cfg.Workers < 0 || cfg.PollMS < 0 {
		return nil, errors.New("resource overrides (CPUs, RAMMB, Workers, PollMS) cannot be negative")
	}
	return &cfg, nil
}

// App encapsulates the application's dependencies and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *runner.Registry
	loader   config.Loader
}

// NewApp constructs a fully initialized App with its own isolated logger and
// registry. When no modules are passed, the built-in core modules are
// registered.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...runner.Module) *App {
	logger := ctxlog.New(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	reg := runner.NewRegistry()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("Runner modules registered.", "count", len(modules))

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		loader:   loader,
	}
}

// Registry returns the application's runner registry. Primarily for testing.
func (a *App) Registry() *runner.Registry {
	return a.registry
}
