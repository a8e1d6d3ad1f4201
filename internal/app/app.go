// Package app wires configuration, stores, use cases and the HTTP surface
// into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/internal/config"
	mongoInfra "github.com/fastygo/taskboard/internal/infrastructure/mongo"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskboard/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskboard/internal/infrastructure/redis"
	"github.com/fastygo/taskboard/internal/middleware"
	"github.com/fastygo/taskboard/internal/router"
	"github.com/fastygo/taskboard/internal/services/lifecycle"
	"github.com/fastygo/taskboard/pkg/authtoken"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	"github.com/fastygo/taskboard/repository"
	boltRepo "github.com/fastygo/taskboard/repository/bolt"
	mongoRepo "github.com/fastygo/taskboard/repository/mongo"
	pgRepo "github.com/fastygo/taskboard/repository/postgres"
	redisRepo "github.com/fastygo/taskboard/repository/redis"
	authUC "github.com/fastygo/taskboard/usecase/auth"
	taskUC "github.com/fastygo/taskboard/usecase/task"
)

// Dependencies are the collaborators the HTTP surface is built from.
// Revocations may be nil.
type Dependencies struct {
	Store       repository.TaskStore
	Revocations repository.RevocationRepository
	Tokens      *authtoken.Manager
	Monitor     *monitor.Monitor
}

// NewHandler assembles routes and middleware into one request handler.
func NewHandler(deps Dependencies, cfg *config.Config, logger *zap.Logger) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	adapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	authUseCase := authUC.New(deps.Tokens, deps.Revocations, logger)
	taskUseCase := taskUC.New(deps.Store, logger)

	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, adapter, logger),
		Task:   apiHandler.NewTaskHandler(taskUseCase, adapter, logger),
		Health: apiHandler.NewHealthHandler(deps.Monitor, adapter, logger),
	}
	r := router.New(handlers, middleware.BearerAuth(authUseCase, adapter, logger), router.Options{
		EnableMetrics: cfg.HTTP.EnableMetrics,
		Logger:        logger,
	})

	return middleware.AccessLog(logger)(middleware.Metrics(r.Handler))
}

// App owns the running server and everything registered for shutdown.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	lifecycle *lifecycle.Manager
	monitor   *monitor.Monitor
	server    *fasthttp.Server
}

// New connects the configured store and optional revocation store and builds
// the server. On error every connection opened so far is released.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, logger)
	defer func() {
		if err != nil {
			_ = manager.Shutdown(context.Background())
		}
	}()

	tokens, err := authtoken.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg, manager, logger)
	if err != nil {
		return nil, err
	}

	mon := monitor.New(cfg.Monitor.Interval, logger)
	mon.Register("store", store, true)

	var revocations repository.RevocationRepository
	if cfg.Redis.Enabled {
		client, err := redisInfra.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		manager.Register("redis", func(context.Context) error { return client.Close() })
		revocations = redisRepo.NewRevocationRepository(client)
		mon.Register("redis", revocations, true)
	}

	server := &fasthttp.Server{
		Handler: NewHandler(Dependencies{
			Store:       store,
			Revocations: revocations,
			Tokens:      tokens,
			Monitor:     mon,
		}, cfg, logger),
		Name:         cfg.AppName,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		lifecycle: manager,
		monitor:   mon,
		server:    server,
	}, nil
}

// Run serves HTTP until ctx is cancelled or the listener fails, then stops
// every component.
func (a *App) Run(ctx context.Context) error {
	if err := a.monitor.Start(); err != nil {
		_ = a.lifecycle.Shutdown(context.Background())
		return fmt.Errorf("start monitor: %w", err)
	}
	a.lifecycle.Register("monitor", func(ctx context.Context) error {
		a.monitor.Stop(ctx)
		return nil
	})
	a.lifecycle.Register("http_server", func(ctx context.Context) error {
		return a.server.ShutdownWithContext(ctx)
	})

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("server started",
			zap.String("address", a.cfg.Address()),
			zap.String("store", a.cfg.Store.Driver),
			zap.Bool("revocation", a.cfg.Redis.Enabled))
		serveErr <- a.server.ListenAndServe(a.cfg.Address())
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("serve http: %w", err)
		}
	}

	return errors.Join(runErr, a.lifecycle.Shutdown(context.Background()))
}

func openStore(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, logger *zap.Logger) (repository.TaskStore, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, coll, err := mongoInfra.Connect(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		manager.Register("mongodb", func(ctx context.Context) error { return client.Disconnect(ctx) })
		if err := mongoRepo.EnsureIndexes(ctx, coll); err != nil {
			return nil, fmt.Errorf("ensure mongodb indexes: %w", err)
		}
		return mongoRepo.NewTaskStore(coll), nil

	case config.StorePostgres:
		if err := pgInfra.RunMigrations(cfg.Database, cfg.Migrations, logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		manager.Register("postgres", func(context.Context) error {
			pool.Close()
			return nil
		})
		return pgRepo.NewTaskStore(pool), nil

	case config.StoreBolt:
		store, err := boltRepo.Open(cfg.Bolt.Path)
		if err != nil {
			return nil, fmt.Errorf("open bolt store: %w", err)
		}
		manager.Register("bolt", func(context.Context) error { return store.Close() })
		logger.Info("opened bolt store", zap.String("path", cfg.Bolt.Path))
		return store, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
