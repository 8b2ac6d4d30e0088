package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/vk/wellformed/internal/config"
	"github.com/vk/wellformed/internal/ctxlog"
	"github.com/vk/wellformed/internal/dispatcher"
	"github.com/vk/wellformed/internal/sink"
)

// Streams are the process streams an App reads and writes. Verdicts go to
// Out, logs go to Err.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	streams   Streams
	appConfig *Config
	config    *config.Model
	logger    *slog.Logger
	runID     string

	httpServer *http.Server
	last       atomic.Pointer[dispatcher.Summary]

	dialPublisher func(ctx context.Context, cfg *config.Publish) (sink.Sink, error)
}

// NewApp is the constructor for the main application. It loads the layered
// configuration and panics if it is unusable; callers recover at the
// process boundary.
func NewApp(streams Streams, appConfig *Config, loader config.Loader) *App {
	ctx := ctxlog.WithLogger(context.Background(), newLogger(config.DefaultLogLevel, config.DefaultLogFormat, streams.Err))

	var paths []string
	if appConfig.ConfigPath != "" {
		paths = append(paths, appConfig.ConfigPath)
	}
	model, err := loader.Load(ctx, paths...)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	if err := config.ApplyEnv(model, appConfig.EnvFile); err != nil {
		panic(fmt.Errorf("failed to apply environment: %w", err))
	}
	appConfig.Overrides.Apply(model)
	if err := model.Validate(); err != nil {
		panic(err)
	}

	runID := uuid.NewString()
	logger := newLogger(model.LogLevel, model.LogFormat, streams.Err).With("run_id", runID)
	logger.Debug("Configuration loaded.",
		"workers", model.Workers,
		"ordered", model.Ordered,
		"explain", model.Explain,
		"publish", model.Publish != nil,
		"healthcheck_port", model.HealthcheckPort,
	)

	return &App{
		streams:   streams,
		appConfig: appConfig,
		config:    model,
		logger:    logger,
		runID:     runID,
		dialPublisher: func(ctx context.Context, cfg *config.Publish) (sink.Sink, error) {
			return sink.DialSocketIO(ctx, cfg)
		},
	}
}

// Config returns the resolved configuration. This is primarily for testing.
func (a *App) Config() *config.Model {
	return a.config
}

// RunID identifies this App's runs in logs.
func (a *App) RunID() string {
	return a.runID
}

// LastSummary returns the running totals of the current run, or the summary
// of the most recent finished one. It is nil before the first verdict.
func (a *App) LastSummary() *dispatcher.Summary {
	return a.last.Load()
}
