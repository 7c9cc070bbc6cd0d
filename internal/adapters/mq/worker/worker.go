// Package worker rebuilds invalidated feeds in the background so the next
// read is served from the cache.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/elockenvitz/tesseract/internal/adapters/mq/queue"
	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/pkg/logger"
	"github.com/elockenvitz/tesseract/pkg/metrics"
)

const (
	defaultWorkerCount    = 2
	defaultRefreshTimeout = 10 * time.Second
)

// Refresher rebuilds a user's feed. The service's Run satisfies it.
type Refresher interface {
	Run(ctx context.Context, userID string, windowHours int) (model.Feed, error)
}

// Source yields refresh requests.
type Source interface {
	Next(ctx context.Context) (queue.Refresh, error)
}

// Pool runs a fixed number of refresh workers over one source.
type Pool struct {
	source    Source
	refresher Refresher
	count     int
	timeout   time.Duration
	logger    logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a pool of workerCount workers; fewer than one means the default.
func NewPool(workerCount int, source Source, refresher Refresher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		source:    source,
		refresher: refresher,
		count:     workerCount,
		timeout:   defaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Named("refresh-pool")
	}
	return p
}

// Start launches the workers. They stop when ctx ends, the source is closed,
// or Shutdown is called.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(p.count)
	for i := 0; i < p.count; i++ {
		l := p.logger.Named("worker-" + strconv.Itoa(i))
		go func() {
			defer p.wg.Done()
			p.run(ctx, l)
		}()
	}
	metrics.UpdateRefreshWorkers(p.count)
	p.logger.Info(ctx, "refresh workers started", logger.Int("workers", p.count))
}

func (p *Pool) run(ctx context.Context, l logger.Logger) {
	for {
		r, err := p.source.Next(ctx)
		if err != nil {
			if !errors.Is(err, queue.ErrClosed) && ctx.Err() == nil {
				l.Error(ctx, "refresh source failed", logger.Error(err))
				metrics.RecordErrorByComponent("worker", "source")
			}
			return
		}
		if err := p.refresh(ctx, r); err != nil {
			l.Warn(ctx, "feed refresh failed",
				logger.String("user_id", r.UserID),
				logger.Int("window_hours", r.WindowHours),
				logger.Error(err),
			)
		}
	}
}

func (p *Pool) refresh(ctx context.Context, r queue.Refresh) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, err := p.refresher.Run(ctx, r.UserID, r.WindowHours)
	ms := float64(time.Since(start).Milliseconds())
	if err != nil {
		metrics.RecordRefresh("error", ms)
		metrics.RecordErrorByComponent("worker", "refresh")
		return fmt.Errorf("refresh %s: %w", r.UserID, err)
	}
	metrics.RecordRefresh("success", ms)
	return nil
}

// Shutdown stops the workers and waits for in-flight refreshes until ctx ends.
func (p *Pool) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		metrics.UpdateRefreshWorkers(0)
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "refresh pool shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
