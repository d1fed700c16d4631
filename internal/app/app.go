package app

import (
	"context"
	"log/slog"
	"path/filepath"

	cfg "github.com/webitel/table-importer/config"
	cache "github.com/webitel/table-importer/internal/cache/redis"
	"github.com/webitel/table-importer/internal/errors"
	"github.com/webitel/table-importer/internal/importer"
	"github.com/webitel/table-importer/internal/server"
	"github.com/webitel/table-importer/internal/service"
	"github.com/webitel/table-importer/internal/storage"
	"github.com/webitel/table-importer/internal/storage/s3"
	"github.com/webitel/table-importer/internal/store"
	"github.com/webitel/table-importer/internal/store/postgres"
)

type App struct {
	Config      *cfg.AppConfig
	exitCh      chan error
	shutdown    func(ctx context.Context) error
	Store       store.Store
	Cache       *cache.RedisCache
	ObjectStore storage.ObjectStore

	coordinator   *importer.Coordinator
	importService service.ImportService
	lockFile      string
	server        *server.Server
}

// New creates a fully initialized App.
func New(config *cfg.AppConfig, shutdown func(ctx context.Context) error) (*App, error) {
	app := &App{
		Config:   config,
		shutdown: shutdown,
		exitCh:   make(chan error),
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}
	if err := app.initRedis(); err != nil {
		return nil, err
	}
	if err := app.initObjectStore(); err != nil {
		return nil, err
	}
	if err := app.initImporter(); err != nil {
		return nil, err
	}
	if err := app.initService(); err != nil {
		return nil, err
	}
	if err := app.initServer(); err != nil {
		return nil, err
	}

	// --------- Route Registration (HTTP) ---------
	RegisterRoutes(app.server.Echo, app)

	return app, nil
}

// --------- Private init methods ---------

func (app *App) initStore() error {
	if app.Config.Database == nil {
		return errors.New("database config is nil")
	}
	app.Store = postgres.New(app.Config.Database)
	return nil
}

func (app *App) initRedis() error {
	redisCache, err := cache.NewRedisCache(app.Config.Redis.Addr, app.Config.Redis.Password, app.Config.Redis.DB)
	if err != nil {
		return errors.New("unable to initialize Redis", errors.WithCause(err))
	}
	app.Cache = redisCache
	return nil
}

func (app *App) initObjectStore() error {
	objectStore, err := s3.New(app.Config.Storage)
	if err != nil {
		return errors.New("unable to initialize object store", errors.WithCause(err))
	}
	app.ObjectStore = objectStore
	return nil
}

func (app *App) initImporter() error {
	imp := app.Config.Import

	app.lockFile = imp.LockFile
	if app.lockFile == "" {
		app.lockFile = filepath.Join(imp.StagingRoot, "converter.lock")
	}

	var lock importer.Locker
	switch imp.LockBackend {
	case "redis":
		lock = &importer.RedisLock{
			Client:   app.Cache.Client(),
			Key:      "import:converter:lock",
			Retries:  imp.LockRetries,
			Interval: imp.LockInterval,
		}
	default:
		lock = &importer.FileLock{
			Path:     app.lockFile,
			Retries:  imp.LockRetries,
			Interval: imp.LockInterval,
		}
	}

	staging := &importer.StagingManager{
		Root:   imp.StagingRoot,
		Remote: app.ObjectStore,
	}
	converter := &importer.ExecConverter{
		Path:       imp.ConverterPath,
		OutputWait: imp.OutputWait,
	}

	app.coordinator = importer.NewCoordinator(
		importer.ExecutableGuard{Path: imp.ConverterPath},
		lock,
		staging,
		converter,
		app.Store.Table(),
	)
	return nil
}

func (app *App) initService() error {
	svc, err := service.NewImportService(
		app.coordinator,
		app.Store.History(),
		app.Cache,
		slog.Default(),
		app.Config.Import.ImportTimeout,
	)
	if err != nil {
		return errors.New("failed to init import service", errors.WithCause(err))
	}
	app.importService = svc
	return nil
}

func (app *App) initServer() error {
	srv, err := server.BuildServer(app.Config.Consul, app.Config.Import.AuthToken, app.exitCh)
	if err != nil {
		return errors.New("failed to build server", errors.WithCause(err))
	}
	app.server = srv
	return nil
}

// Start runs DB, HTTP server and background workers
func (app *App) Start(ctx context.Context) error {
	if err := app.Store.Open(); err != nil {
		return errors.New("failed to open store", errors.WithCause(err))
	}

	go app.server.Start()
	app.StartStagingSweeper(ctx)

	return <-app.exitCh
}

// Stop gracefully shuts down all services
func (app *App) Stop() error {
	slog.Info("table_importer.main.stop_starting")

	if app.server != nil {
		app.server.Stop()
		slog.Info("server stopped")
	}

	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			slog.Error("store close error", "err", err)
		} else {
			slog.Info("store closed")
		}
	}

	if app.shutdown != nil {
		if err := app.shutdown(context.Background()); err != nil {
			slog.Error("shutdown hook error", "err", err)
		} else {
			slog.Info("shutdown hook executed")
		}
	}

	slog.Info("table_importer.main.stop_complete")
	return nil
}
