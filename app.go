package authenticator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/dmitrymomot/authenticator/pkg/cryptography"
	"github.com/dmitrymomot/authenticator/pkg/environment"
	"github.com/dmitrymomot/authenticator/pkg/exporter"
	"github.com/dmitrymomot/authenticator/pkg/feature"
	"github.com/dmitrymomot/authenticator/pkg/file"
	"github.com/dmitrymomot/authenticator/pkg/importer"
	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/logger"
	"github.com/dmitrymomot/authenticator/pkg/pg"
	"github.com/dmitrymomot/authenticator/pkg/redis"
	"github.com/dmitrymomot/authenticator/pkg/repository"
	"github.com/dmitrymomot/authenticator/pkg/secrets"
	"github.com/dmitrymomot/authenticator/pkg/shared"
)

// App holds the wired components of an authenticator install.
type App struct {
	Config     Config
	Logger     *slog.Logger
	Keys       *secrets.KeyProvider
	Store      item.Store
	Shared     shared.Source
	Flags      feature.Provider
	Repository *repository.Repository
	Importer   *importer.Service
	Exporter   *exporter.Exporter

	closers []func() error
}

// Option overrides a component New would otherwise build from Config.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	keyStore secrets.KeyStore
	store    item.Store
	shared   shared.Source
	flags    feature.Provider
	storage  file.Storage
}

func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.logger = log }
}

func WithKeyStore(ks secrets.KeyStore) Option {
	return func(o *options) { o.keyStore = ks }
}

// WithStore uses store instead of the configured backend. The caller keeps ownership.
func WithStore(store item.Store) Option {
	return func(o *options) { o.store = store }
}

// WithSharedSource uses src instead of the configured source. The caller keeps ownership.
func WithSharedSource(src shared.Source) Option {
	return func(o *options) { o.shared = src }
}

func WithFeatureFlags(flags feature.Provider) Option {
	return func(o *options) { o.flags = flags }
}

// WithExportStorage uses storage instead of the configured export target.
func WithExportStorage(storage file.Storage) Option {
	return func(o *options) { o.storage = storage }
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(environment.Parse(cfg.Env), "authenticator"),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
	}
	if cfg.LogFile != "" {
		opts = append(opts, logger.WithFileOutput(cfg.LogFile))
	}
	return logger.New(opts...)
}

// New wires every component selected by cfg. Components opened here are
// released by Close; on failure New releases them itself.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{Config: cfg, Logger: o.logger}
	if a.Logger == nil {
		a.Logger = NewLogger(cfg)
	}

	if err := a.setup(ctx, o); err != nil {
		a.Logger.ErrorContext(ctx, "setup failed", logger.Error(err))
		return nil, errors.Join(ErrSetupFailed, err, a.Close())
	}
	return a, nil
}

func (a *App) setup(ctx context.Context, o *options) error {
	cfg := a.Config

	if cfg.DataDir != "" {
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return err
		}
	}

	keyStore := o.keyStore
	if keyStore == nil {
		keyStore = secrets.NewFileKeyStore(cfg.KeyFile)
	}
	a.Keys = secrets.NewKeyProvider(keyStore)
	a.closers = append(a.closers, a.Keys.Close)
	crypto := cryptography.NewService(a.Keys)

	a.Store = o.store
	if a.Store == nil {
		store, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		a.Store = store
	}

	a.Flags = o.flags
	if a.Flags == nil && cfg.FlagsFile != "" {
		flags, err := feature.LoadFile(cfg.FlagsFile, environment.Parse(cfg.Env).String())
		if err != nil {
			return err
		}
		a.Flags = flags
	}

	a.Shared = o.shared
	if a.Shared == nil && cfg.SharedSource == SharedRedis {
		src, err := a.openSharedSource(ctx)
		if err != nil {
			return err
		}
		a.Shared = src
	}

	repoOpts := []repository.Option{
		repository.WithLogger(a.Logger),
		repository.WithFeatureFlags(a.Flags),
	}
	if a.Shared != nil {
		repoOpts = append(repoOpts, repository.WithSharedSource(a.Shared))
	}
	a.Repository = repository.New(a.Store, crypto, repoOpts...)
	a.Importer = importer.NewService(a.Repository, a.Logger.With(logger.Component("importer")))

	storage := o.storage
	if storage == nil {
		s, err := a.openExportStorage(ctx)
		if err != nil {
			return err
		}
		storage = s
	}
	a.Exporter = exporter.New(a.Repository, storage,
		exporter.WithLogger(a.Logger.With(logger.Component("exporter"))),
	)

	return nil
}

func (a *App) openStore(ctx context.Context) (item.Store, error) {
	cfg := a.Config
	log := a.Logger.With(logger.Component("store"))

	switch cfg.Store {
	case StoreMemory:
		store := item.NewMemoryStore()
		a.closers = append(a.closers, store.Close)
		return store, nil

	case StorePostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		store, err := item.NewPostgresStore(ctx, pool, cfg.Postgres, log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil

	default:
		store, err := item.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		log.DebugContext(ctx, "sqlite store opened", logger.Location(cfg.SQLitePath))
		return store, nil
	}
}

func (a *App) openSharedSource(ctx context.Context) (shared.Source, error) {
	client, err := redis.Connect(ctx, a.Config.Redis)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)

	src, err := shared.NewRedisSource(ctx, client,
		shared.WithPrefix(a.Config.SharedPrefix),
		shared.WithLogger(a.Logger.With(logger.Component("shared"))),
	)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, src.Close)
	return src, nil
}

func (a *App) openExportStorage(ctx context.Context) (file.Storage, error) {
	if a.Config.ExportTarget == ExportS3 {
		s3, err := file.NewS3Storage(ctx, a.Config.S3)
		if err != nil {
			return nil, err
		}
		return s3, nil
	}
	local, err := file.NewLocalStorage(a.Config.ExportDir)
	if err != nil {
		return nil, err
	}
	return local, nil
}

// Close releases everything New opened, newest first.
func (a *App) Close() error {
	closers := a.closers
	a.closers = nil

	var errs []error
	for _, c := range slices.Backward(closers) {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ io.Closer = (*App)(nil)
