package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/dig"

	"campusdrop/internal/config"
	"campusdrop/internal/logx"
	"campusdrop/internal/service/user"
	"campusdrop/internal/transport/kafka"
)

const shutdownTimeout = 15 * time.Second

// Runner runs the HTTP API
type Runner struct {
	runFn func(*dig.Container) error
	fatal func(string, ...interface{})
}

// NewRunner returns a new Runner
func NewRunner() *Runner {
	return &Runner{runFn: run, fatal: func(format string, args ...interface{}) {
		panic(fmt.Sprintf(format, args...))
	}}
}

// MustRun starts the HTTP server using the provided DI container and blocks
// until its context ends.
func (r *Runner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil {
		return
	}

	logger := logx.Nop()
	_ = container.Invoke(func(l logx.Logger) { logger = l })
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("shutdown requested, exiting")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("startup aborted: startup timeout exceeded")
	default:
		logger.Error("run error", logx.Err(err))
		_ = logger.Sync()
		r.fatal("run error: %v", err)
	}
}

// MustRun runs the API with the default Runner.
func MustRun(container *dig.Container) {
	NewRunner().MustRun(container)
}

type runIn struct {
	dig.In
	Ctx      context.Context
	Config   *config.Config
	Logger   logx.Logger
	Server   *http.Server
	Storage  *storage
	Producer *kafka.Producer
	Users    *user.Service
}

func run(container *dig.Container) error {
	return container.Invoke(serve)
}

func serve(in runIn) error {
	defer closeResources(in.Logger, in.Storage, in.Producer)

	if err := bootstrapAdmin(in.Ctx, in.Config, in.Users, in.Logger); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", in.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", in.Server.Addr, err)
	}
	errCh := startServer(in.Server, ln, in.Logger)

	select {
	case <-in.Ctx.Done():
		in.Logger.Info("shutting down campusdrop...")
		gracefulShutdown(in.Server, in.Logger, shutdownTimeout)
		return in.Ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	}
}

func bootstrapAdmin(ctx context.Context, cfg *config.Config, users *user.Service, logger logx.Logger) error {
	if cfg.Auth.BootstrapAdminID == "" {
		return nil
	}
	id, err := uuid.Parse(cfg.Auth.BootstrapAdminID)
	if err != nil {
		return fmt.Errorf("bootstrap admin id: %w", err)
	}
	if _, err := users.EnsureAdmin(ctx, id, "Administrator"); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	logger.Info("bootstrap admin ready", logx.UUID("user_id", id))
	return nil
}

func startServer(server *http.Server, ln net.Listener, logger logx.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("campusdrop listening", logx.String("addr", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

func gracefulShutdown(srv *http.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn("graceful shutdown error", logx.Err(err))
		if err := srv.Close(); err != nil {
			logger.Warn("server close error", logx.Err(err))
		}
	}
}

func closeResources(logger logx.Logger, st *storage, producer *kafka.Producer) {
	// producer first: it may still flush events of the last requests
	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", logx.Err(err))
	}
	st.Close()
	_ = logger.Sync()
}
