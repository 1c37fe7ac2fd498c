package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kode4food/pilot/internal/catalog"
	"github.com/kode4food/pilot/internal/config"
	"github.com/kode4food/pilot/internal/engine"
	"github.com/kode4food/pilot/internal/metrics"
	"github.com/kode4food/pilot/internal/server"
	"github.com/kode4food/pilot/internal/task"
	"github.com/kode4food/pilot/pkg/log"
)

type pilot struct {
	cfg        *config.Config
	catalog    *catalog.Catalog
	tasks      *task.Registry
	metrics    *metrics.Metrics
	engine     *engine.Engine
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var (
	ErrOpenCatalog = errors.New("failed to open catalog")
	ErrLoadTasks   = errors.New("failed to load tasks")
)

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	p := &pilot{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	p.setupLogging()

	if err := p.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (p *pilot) run() error {
	ctx := context.Background()
	if err := p.initializeCatalog(ctx); err != nil {
		return err
	}
	defer func() { _ = p.catalog.Close() }()

	if err := p.initializeTasks(ctx); err != nil {
		return err
	}
	p.initializeEngine()
	p.startServer()

	signal.Notify(p.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(p.quit)
	<-p.quit

	p.shutdown()
	return nil
}

func (p *pilot) setupLogging() {
	level, ok := log.ParseLevel(p.cfg.LogLevel)
	logger := log.NewWithLevel(
		server.ServiceName, p.cfg.Environment, p.cfg.Version, level,
	)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	if !ok {
		slog.Warn("Unknown log level, using info",
			slog.String("log_level", p.cfg.LogLevel))
	}

	slog.Info("Pilot starting",
		slog.String("log_level", p.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("config_url", p.cfg.ConfigURL),
		slog.String("tasks_file", p.cfg.TasksFile),
		log.Flow(p.cfg.DefaultFlow),
		slog.Int64("task_timeout_ms", p.cfg.TaskTimeout),
		slog.String("api_host", p.cfg.APIHost),
		slog.Int("api_port", p.cfg.APIPort))
}

func (p *pilot) initializeCatalog(ctx context.Context) error {
	cat, err := catalog.Open(ctx, p.cfg.ConfigURL)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpenCatalog, err)
	}
	p.catalog = cat

	flows, err := cat.ListFlows(ctx)
	if err != nil {
		slog.Warn("Unable to list flows",
			log.Error(err))
		return nil
	}
	slog.Info("Catalog opened",
		slog.Int("flows", len(flows)))
	return nil
}

func (p *pilot) initializeTasks(ctx context.Context) error {
	data, err := p.catalog.Read(ctx, p.cfg.TasksFile)
	if errors.Is(err, catalog.ErrFileNotFound) {
		slog.Warn("Tasks file not found, no tasks registered",
			slog.String("tasks_file", p.cfg.TasksFile))
		data, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadTasks, err)
	}

	defs, err := task.ParseDefinitions(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadTasks, err)
	}

	p.tasks, err = task.Build(defs, task.Options{
		DefaultTimeout: p.cfg.TaskTimeoutDuration(),
		HTTPClient:     &http.Client{},
		LuaEnv:         task.NewLuaEnv(),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadTasks, err)
	}

	slog.Info("Tasks registered",
		slog.Int("tasks", p.tasks.Len()))
	return nil
}

func (p *pilot) initializeEngine() {
	p.metrics = metrics.New(prometheus.DefaultRegisterer)
	p.engine = engine.New(engine.Dependencies{
		Catalog:  p.catalog,
		Registry: p.tasks,
		Metrics:  p.metrics,
	})
}

func (p *pilot) startServer() {
	p.apiServer = server.NewServer(server.Dependencies{
		Runner:   p.engine,
		Catalog:  p.catalog,
		Tasks:    p.tasks,
		Gatherer: prometheus.DefaultGatherer,
		Config:   p.cfg,
	})
	mux := p.apiServer.SetupRoutes()

	p.httpServer = &http.Server{
		Addr:    p.cfg.Addr(),
		Handler: mux,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", p.httpServer.Addr))
		err := p.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
			p.quit <- syscall.SIGTERM
		}
	}()
}

func (p *pilot) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), p.cfg.ShutdownTimeout,
	)
	defer cancel()

	p.apiServer.CloseWebSockets()
	if err := p.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	slog.Info("Shutdown complete")
}
