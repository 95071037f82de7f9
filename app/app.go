package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/zlpkhr/hasty-server/config"
	"github.com/zlpkhr/hasty-server/core"
	"github.com/zlpkhr/hasty-server/core/admin"
	"github.com/zlpkhr/hasty-server/core/middleware"
	"github.com/zlpkhr/hasty-server/core/observability"
	"github.com/zlpkhr/hasty-server/core/sendfile"
)

// App wires configuration, logging, metrics, storage and the admin server
// around an engine
type App struct {
	cfg        *config.Config
	manager    *config.Manager
	configFile string

	engine   *core.Engine
	logger   *slog.Logger
	registry *prometheus.Registry
	admin    *admin.Server
}

// Option configures an App
type Option func(*options)

type options struct {
	manager    *config.Manager
	configFile string
	logOutput  io.Writer
	storage    sendfile.Storage
}

// WithManager subscribes the app to live changes in m
func WithManager(m *config.Manager) Option {
	return func(o *options) { o.manager = m }
}

// WithConfigFile makes Run watch path and reload it into the manager
func WithConfigFile(path string) Option {
	return func(o *options) { o.configFile = path }
}

// WithLogOutput sets where logs are written. Defaults to stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithStorage overrides the storage chosen from the configuration
func WithStorage(s sendfile.Storage) Option {
	return func(o *options) { o.storage = s }
}

// New creates an application instance
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat, o.logOutput)
	if err != nil {
		return nil, err
	}
	logger = logger.With("env", cfg.Env)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(observability.WithRegistry(registry))

	storage := o.storage
	if storage == nil {
		storage = newStorage(cfg, logger)
	}

	engine := core.NewEngine(core.Options{
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		MaxConnections: cfg.MaxConnections,
		ReadBufferSize: cfg.ReadBufferSize,
		ReusePort:      cfg.ReusePort,
		CORS:           cfg.EnableCORS,
		Storage:        storage,
		Logger:         logger,
		Metrics:        metrics,
		Tracer:         observability.NewTracer(nil),
	})
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Preflight())

	a := &App{
		cfg:        cfg,
		manager:    o.manager,
		configFile: o.configFile,
		engine:     engine,
		logger:     logger,
		registry:   registry,
	}

	if a.manager != nil {
		a.manager.SetLogger(logger)
		a.manager.Watch("cors.enabled", func(_ string, v any) {
			engine.CORS(config.Bool(v))
		})
	}

	if cfg.AdminAddr != "" {
		a.admin = admin.NewServer(admin.Config{
			Addr:     cfg.AdminAddr,
			Gatherer: registry,
			Routes:   engine,
			Logger:   logger.With("component", "admin"),
		})
	}

	return a, nil
}

func newStorage(cfg *config.Config, logger *slog.Logger) sendfile.Storage {
	if cfg.S3Bucket == "" {
		return sendfile.NewOSStorage(cfg.StaticDir)
	}

	logger.Info("serving files from s3", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix, "region", cfg.S3Region)
	client := sendfile.NewS3Client(sendfile.S3ClientConfig{
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	return sendfile.NewS3Storage(client, cfg.S3Bucket, cfg.S3Prefix)
}

// Engine returns the underlying engine for route registration
func (a *App) Engine() *core.Engine {
	return a.engine
}

// Logger returns the application logger
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Registry returns the Prometheus registry the app's metrics live in
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully within the configured shutdown timeout
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		a.logger.Info("server starting", "addr", a.cfg.Addr(), "cors", a.engine.CORSEnabled())
		if err := a.engine.Listen(a.cfg.Addr()); err != nil && !errors.Is(err, core.ErrServerClosed) {
			errc <- fmt.Errorf("engine: %w", err)
		}
	}()

	if a.admin != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.admin.ListenAndServe(); err != nil {
				errc <- fmt.Errorf("admin: %w", err)
			}
		}()
	}

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	if a.manager != nil && a.configFile != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.manager.WatchFile(watchCtx, a.configFile); err != nil {
				a.logger.Warn("config watch stopped", "file", a.configFile, "error", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
	case runErr = <-errc:
		a.logger.Error("server failed", "error", runErr)
	}
	cancelWatch()

	shutdownErr := a.Shutdown()
	wg.Wait()

	return errors.Join(runErr, shutdownErr)
}

// Shutdown stops the engine and the admin server, waiting at most the
// configured shutdown timeout for in-flight connections
func (a *App) Shutdown() error {
	ctx := context.Background()
	if a.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.ShutdownTimeout)
		defer cancel()
	}

	var errs []error
	if err := a.engine.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.admin != nil {
		if err := a.admin.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.logger.Info("shutdown complete")
	return nil
}
