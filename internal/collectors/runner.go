package collectors

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/pkg/logger"
	"github.com/elockenvitz/tesseract/pkg/metrics"
	"github.com/elockenvitz/tesseract/pkg/tracing"
)

// Default runner configuration.
const (
	defaultTimeout     = 5 * time.Second
	defaultConcurrency = 0 // one goroutine per collector
)

// Collector failure kinds.
var (
	ErrCollectorTimeout = errors.New("collector timed out")
	ErrCollectorPanic   = errors.New("collector panicked")
)

// Runner fans a request out to every collector and merges what succeeds.
type Runner struct {
	collectors  []Collector
	timeout     time.Duration
	concurrency int
	logger      logger.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTimeout bounds each collector invocation.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithConcurrency caps how many collectors run at once. Zero or less means
// no cap.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		r.concurrency = n
	}
}

// WithLogger sets the runner logger.
func WithLogger(l logger.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a runner over collectors, merged in the given order.
func NewRunner(collectors []Collector, opts ...RunnerOption) *Runner {
	r := &Runner{
		collectors:  collectors,
		timeout:     defaultTimeout,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Named("collectors")
	}
	return r
}

// Run invokes every collector concurrently. A collector that fails, times out
// or panics contributes nothing; only cancellation of ctx fails the run.
func (r *Runner) Run(ctx context.Context, userID string, windowStart time.Time) ([]model.Candidate, error) {
	results := make([][]model.Candidate, len(r.collectors))

	g := new(errgroup.Group)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, c := range r.collectors {
		g.Go(func() error {
			results[i] = r.collect(ctx, c, userID, windowStart)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collect: %w", err)
	}

	var total int
	for _, res := range results {
		total += len(res)
	}
	out := make([]model.Candidate, 0, total)
	for _, res := range results {
		out = append(out, res...)
	}
	return out, nil
}

type outcome struct {
	candidates []model.Candidate
	err        error
}

func (r *Runner) collect(ctx context.Context, c Collector, userID string, windowStart time.Time) []model.Candidate {
	name := c.Name()
	ctx, span := tracing.Start(ctx, "collector."+name)
	defer span.End()
	span.SetAttributes(attribute.String("collector", name))

	if ctx.Err() != nil {
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				buf := make([]byte, 4096)
				buf = buf[:runtime.Stack(buf, false)]
				done <- outcome{err: fmt.Errorf("%w: %v\n%s", ErrCollectorPanic, p, buf)}
			}
		}()
		cands, err := c.Collect(cctx, userID, windowStart)
		done <- outcome{candidates: cands, err: err}
	}()

	var res outcome
	select {
	case res = <-done:
	case <-cctx.Done():
		res.err = fmt.Errorf("%w: %w", ErrCollectorTimeout, cctx.Err())
	}

	if res.err == nil {
		elapsed := float64(time.Since(start).Milliseconds())
		metrics.RecordCollectorResult(name, len(res.candidates), elapsed)
		span.SetAttributes(attribute.Int("candidates", len(res.candidates)))
		return res.candidates
	}

	// The caller gave up; the run fails as a whole, not this collector.
	if ctx.Err() != nil {
		return nil
	}

	reason := failureReason(res.err)
	metrics.RecordCollectorFailure(name, reason)
	metrics.RecordErrorByComponent("collectors", reason)
	span.RecordError(res.err)
	span.SetStatus(codes.Error, reason)
	r.logger.Warn(ctx, "collector failed",
		logger.String("collector", name),
		logger.String("user_id", userID),
		logger.String("reason", reason),
		logger.Error(res.err),
	)
	return nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrCollectorPanic):
		return "panic"
	case errors.Is(err, ErrCollectorTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
