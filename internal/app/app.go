package app

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/specialistvlad/flowgridgo/internal/config"
	"github.com/specialistvlad/flowgridgo/internal/handlers"
	"github.com/specialistvlad/flowgridgo/internal/pipeline"
	"github.com/specialistvlad/flowgridgo/internal/scheduler"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   config.Loader
	handlers *handlers.Handlers
	metrics  *prometheus.Registry

	pipeline *pipeline.Pipeline
}

// NewApp is the constructor for the main application. It returns an App with
// its own isolated logger, handler set and metrics registry. Without modules,
// the core modules are registered.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, modules ...handlers.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	h := handlers.New()
	if len(modules) == 0 {
		modules = coreModules(outW)
	}
	for _, mod := range modules {
		mod.Register(h)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "kinds", h.Kinds())

	registry := prometheus.NewRegistry()
	scheduler.InitMetrics(registry)
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &App{
		outW:     outW,
		logger:   logger,
		config:   appConfig,
		loader:   loader,
		handlers: h,
		metrics:  registry,
	}
}

// Pipeline returns the pipeline built by the last Run. This is primarily for
// testing.
func (a *App) Pipeline() *pipeline.Pipeline {
	return a.pipeline
}

// Handlers returns the application's handler set.
func (a *App) Handlers() *handlers.Handlers {
	return a.handlers
}
