package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/dig"

	"campusdrop/internal/auth"
	"campusdrop/internal/config"
	"campusdrop/internal/logx"
	"campusdrop/internal/ports/storetx"
	"campusdrop/internal/repository/memstore"
	"campusdrop/internal/repository/postgres"
)

type (
	connectFunc func(ctx context.Context, logger logx.Logger, dsn string, retries int, delay time.Duration) (*pgxpool.Pool, error)
	migrateFunc func(ctx context.Context, pool *pgxpool.Pool) error
)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	loadConfig func() (*config.Config, error)
	dbConnect  connectFunc
	migrate    migrateFunc
	logOutput  io.Writer
	logFatalf  func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		loadConfig: config.Load,
		dbConnect:  postgres.Connect,
		migrate:    postgres.Migrate,
		logOutput:  os.Stdout,
		logFatalf:  log.Fatalf,
	}
}

// WithConfig replaces config loading.
func (b *ContainerBuilder) WithConfig(fn func() (*config.Config, error)) *ContainerBuilder {
	if fn != nil {
		b.loadConfig = fn
	}
	return b
}

// WithDBConnect sets the database connection function
func (b *ContainerBuilder) WithDBConnect(fn connectFunc) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithMigrate sets the schema migration function
func (b *ContainerBuilder) WithMigrate(fn migrateFunc) *ContainerBuilder {
	if fn != nil {
		b.migrate = fn
	}
	return b
}

// WithLogOutput sets where the service logger writes.
func (b *ContainerBuilder) WithLogOutput(w io.Writer) *ContainerBuilder {
	if w != nil {
		b.logOutput = w
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

// build builds and returns a new dig container
func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx, b.loadConfig, b.logOutput); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerStorage(container, b.dbConnect, b.migrate); err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}
	if err := registerMetrics(container); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if err := registerEvents(container); err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	if err := registerService(container); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds and returns a new dig container
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

// operationTimeout bounds every service call.
type operationTimeout time.Duration

func registerCore(container *dig.Container, ctx context.Context, load func() (*config.Config, error), out io.Writer) error {
	return provideAll(container,
		func() context.Context { return ctx },
		load,
		func(cfg *config.Config) (logx.Logger, error) {
			return logx.New(cfg.Log.Backend, cfg.Log.Level, out)
		},
		func(cfg *config.Config) operationTimeout {
			return operationTimeout(cfg.OperationTimeout)
		},
		func(cfg *config.Config) *auth.Manager {
			return auth.NewManager(cfg.Auth.Secret, cfg.Auth.TTL)
		},
		func(m *auth.Manager) auth.Verifier { return m },
	)
}

// storage owns the entity store and, for postgres, its pool.
type storage struct {
	store storetx.Store
	pool  *pgxpool.Pool
}

func (s *storage) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

func registerStorage(container *dig.Container, dbConnect connectFunc, migrate migrateFunc) error {
	provideStorage := func(ctx context.Context, cfg *config.Config, logger logx.Logger) (*storage, error) {
		if cfg.Storage.Driver == config.DriverMemory {
			logger.Warn("using in-memory storage, data is lost on restart")
			return &storage{store: memstore.New()}, nil
		}

		pool, err := dbConnect(ctx, logger, cfg.DB.DSN(), 10, time.Second)
		if err != nil {
			return nil, err
		}
		if cfg.Storage.AutoMigrate {
			if err := migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		return &storage{store: postgres.NewStore(pool), pool: pool}, nil
	}
	return provideAll(container,
		provideStorage,
		func(s *storage) storetx.Store { return s.store },
	)
}

func registerHTTP(container *dig.Container) error {
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	if err := registerHandlers(container); err != nil {
		return err
	}
	if err := registerRateLimit(container); err != nil {
		return err
	}
	return provideAll(container,
		newRouter,
		serverProvider,
	)
}
