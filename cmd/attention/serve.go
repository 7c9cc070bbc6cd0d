package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/elockenvitz/tesseract/internal/adapters/http/api"
	"github.com/elockenvitz/tesseract/internal/adapters/mq/queue"
	"github.com/elockenvitz/tesseract/internal/adapters/mq/worker"
	service "github.com/elockenvitz/tesseract/internal/app"
	"github.com/elockenvitz/tesseract/pkg/logger"
	"github.com/elockenvitz/tesseract/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 30 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the attention API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, flags)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			// Writes invalidate a user's cached feeds; the refresh pool
			// rebuilds the default window so the next read is a cache hit.
			var refreshes *queue.InMemoryQueue
			var extra []service.Option
			if cfg.RefreshWorkers > 0 && cfg.CacheSize > 0 {
				refreshes = queue.NewInMemoryQueue()
				extra = append(extra, service.WithInvalidationHook(func(userID string) {
					refreshes.Enqueue(ctx, userID, cfg.DefaultWindowHours)
				}))
			}

			env, err := build(ctx, cfg, extra...)
			if err != nil {
				return err
			}
			defer func() {
				if err := env.Close(context.Background()); err != nil {
					env.log.Error(ctx, "close failed", logger.Error(err))
				}
			}()

			var pool *worker.Pool
			if refreshes != nil {
				pool = worker.NewPool(cfg.RefreshWorkers, refreshes, env.svc, worker.WithLogger(logger.Named("refresh")))
				pool.Start(ctx)
			}

			go startSystemMetricsUpdater(ctx)

			return serve(ctx, env, api.NewServer(env.svc, api.WithLogger(logger.Named("api"))).Handler(), refreshes, pool)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config addr)")
	return cmd
}

// serve runs the HTTP server until ctx ends, then shuts down the server
// followed by the refresh queue and workers.
func serve(ctx context.Context, env *environment, handler http.Handler, refreshes *queue.InMemoryQueue, pool *worker.Pool) error {
	srv := &http.Server{
		Addr:              env.cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		env.log.Info(ctx, "starting HTTP server",
			logger.String("addr", env.cfg.Addr),
			logger.String("fixtures", env.cfg.FixturesPath),
			logger.Bool("durable_state", env.durable),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
	case <-ctx.Done():
	}
	env.log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if refreshes != nil {
		_ = refreshes.Close()
	}
	if pool != nil {
		if err := pool.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	env.log.Info(ctx, "server stopped")
	return errors.Join(errs...)
}

// startSystemMetricsUpdater refreshes process gauges until ctx ends.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
