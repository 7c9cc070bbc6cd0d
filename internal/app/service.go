// Package service wires collectors, the state overlay and the domain stages
// into the attention pipeline consumed by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/elockenvitz/tesseract/internal/adapters/repository"
	"github.com/elockenvitz/tesseract/internal/domain/band"
	"github.com/elockenvitz/tesseract/internal/domain/dedupe"
	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/internal/domain/scoring"
	"github.com/elockenvitz/tesseract/internal/domain/section"
	"github.com/elockenvitz/tesseract/internal/domain/window"
	"github.com/elockenvitz/tesseract/pkg/logger"
	"github.com/elockenvitz/tesseract/pkg/metrics"
	"github.com/elockenvitz/tesseract/pkg/tracing"
)

// Sentinel errors.
var (
	ErrMissingUser     = errors.New("user id is required")
	ErrStateWrite      = errors.New("state write failed")
	ErrNoResolver      = errors.New("no resolver configured")
	ErrUnknownAction   = errors.New("unknown resolution action")
	ErrNoHistory       = errors.New("state store keeps no history")
	ErrMissingSourceID = errors.New("source id is required")

	// Resolver implementations wrap these so callers can classify failures
	// without knowing the backing store.
	ErrNotFound     = errors.New("record not found")
	ErrNotDeciding  = errors.New("trade item is not awaiting a decision")
	ErrInvalidHours = errors.New("defer hours must be positive")
)

// Defaults.
const (
	defaultCacheSize = 1024
	defaultCacheTTL  = time.Minute
	defaultMaxWindow = 14 * 24
)

// Gatherer collects raw candidates for a user from every domain source.
type Gatherer interface {
	Run(ctx context.Context, userID string, windowStart time.Time) ([]model.Candidate, error)
}

// StateStore persists the per-user read, snooze and dismiss overlay.
type StateStore interface {
	ReadAll(ctx context.Context, userID string) (map[string]model.UserState, error)
	WriteDecision(ctx context.Context, userID, attentionID string, d model.Decision) error
}

// HistoryStore is implemented by state stores that keep a decision log.
type HistoryStore interface {
	History(ctx context.Context, userID, attentionID string) ([]repository.LogEntry, error)
}

// Resolver mutates the underlying domain records.
type Resolver interface {
	MarkDone(ctx context.Context, sourceID string) error
	Approve(ctx context.Context, userID, sourceID string) error
	Reject(ctx context.Context, userID, sourceID string) error
	Defer(ctx context.Context, sourceID string, hours int) error
}

// DecisionSource supplies the independently computed decision stream.
type DecisionSource interface {
	Decisions(ctx context.Context, userID string) ([]model.DecisionItem, error)
}

type cacheKey struct {
	userID  string
	hours   int
	version uint64
}

// cachedFeed expires early when a snooze or due date inside it lapses.
type cachedFeed struct {
	feed    model.Feed
	expires time.Time
}

func (c cachedFeed) stale(now time.Time) bool {
	return !c.expires.IsZero() && !now.Before(c.expires)
}

// Service runs the attention pipeline and classifies its output.
type Service struct {
	gatherer   Gatherer
	state      StateStore
	decisions  DecisionSource
	resolver   Resolver
	scorer     scoring.Scorer
	classifier *band.Classifier

	cache     *expirable.LRU[cacheKey, cachedFeed]
	cacheSize int
	cacheTTL  time.Duration

	mu           sync.Mutex
	versions     map[string]uint64
	onInvalidate func(userID string)

	defaultWindow int
	maxWindow     int

	now    func() time.Time
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source used as "now" for every run.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithScorer replaces the default weighted scorer.
func WithScorer(sc scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithClassifier replaces the default band classifier.
func WithClassifier(c *band.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithDecisionSource sets the decision stream merged by Classify.
func WithDecisionSource(d DecisionSource) Option {
	return func(s *Service) {
		s.decisions = d
	}
}

// WithResolver sets the service that applies resolution actions.
func WithResolver(r Resolver) Option {
	return func(s *Service) {
		s.resolver = r
	}
}

// WithCacheSize sets how many feeds are cached. Zero or less disables the cache.
func WithCacheSize(n int) Option {
	return func(s *Service) {
		s.cacheSize = n
	}
}

// WithCacheTTL bounds how long a cached feed is served.
func WithCacheTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.cacheTTL = d
		}
	}
}

// WithDefaultWindowHours sets the window used when a request asks for none.
func WithDefaultWindowHours(h int) Option {
	return func(s *Service) {
		if h > 0 {
			s.defaultWindow = h
		}
	}
}

// WithMaxWindowHours caps the requested window.
func WithMaxWindowHours(h int) Option {
	return func(s *Service) {
		if h > 0 {
			s.maxWindow = h
		}
	}
}

// WithInvalidationHook registers fn to run after a user's cached feeds are
// dropped. It runs on the caller's goroutine and must not block.
func WithInvalidationHook(fn func(userID string)) Option {
	return func(s *Service) {
		s.onInvalidate = fn
	}
}

// New constructs a Service over a candidate gatherer and a state store.
func New(gatherer Gatherer, state StateStore, opts ...Option) *Service {
	s := &Service{
		gatherer:      gatherer,
		state:         state,
		scorer:        scoring.NewWeightedScorer(),
		classifier:    band.NewClassifier(),
		cacheSize:     defaultCacheSize,
		cacheTTL:      defaultCacheTTL,
		versions:      make(map[string]uint64),
		defaultWindow: window.DefaultHours,
		maxWindow:     defaultMaxWindow,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}
	if s.cacheSize > 0 {
		s.cache = expirable.NewLRU[cacheKey, cachedFeed](s.cacheSize, nil, s.cacheTTL)
	}
	return s
}

// WindowHours resolves a requested window: zero or less means the default,
// and the result is clamped to [1, max].
func (s *Service) WindowHours(requested int) int {
	if requested <= 0 {
		requested = s.defaultWindow
	}
	return window.ClampHours(requested, s.maxWindow)
}

// Run aggregates the user's attention feed over the trailing window.
func (s *Service) Run(ctx context.Context, userID string, windowHours int) (model.Feed, error) {
	if userID == "" {
		return model.Feed{}, ErrMissingUser
	}
	hours := s.WindowHours(windowHours)
	key := cacheKey{userID: userID, hours: hours, version: s.version(userID)}
	if s.cache != nil {
		if entry, ok := s.cache.Get(key); ok && !entry.stale(s.now()) {
			metrics.RecordCacheHit()
			return entry.feed, nil
		}
		metrics.RecordCacheMiss()
	}

	ctx, span := tracing.Start(ctx, "attention.run")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID), attribute.Int("window_hours", hours))

	start := time.Now()
	feed, expires, err := s.run(ctx, userID, hours)
	elapsed := float64(time.Since(start).Nanoseconds()) / 1e6
	if err != nil {
		metrics.RecordRun("error", elapsed)
		metrics.RecordErrorByComponent("service", "run")
		failSpan(span, err)
		s.logger.Error(ctx, "attention run failed", logger.String("user_id", userID), logger.Error(err))
		return model.Feed{}, err
	}
	metrics.RecordRun("success", elapsed)
	span.SetAttributes(attribute.Int("items", feed.Counts.Total))

	if s.cache != nil {
		s.cache.Add(key, cachedFeed{feed: feed, expires: expires})
	}
	s.logger.Debug(ctx, "attention run complete",
		logger.String("user_id", userID),
		logger.Int("window_hours", hours),
		logger.Int("items", feed.Counts.Total),
		logger.Float64("duration_ms", elapsed),
	)
	return feed, nil
}

// run returns the feed and the instant a pending snooze or due date lapses,
// zero when none does.
func (s *Service) run(ctx context.Context, userID string, hours int) (model.Feed, time.Time, error) {
	now := s.now()
	windowStart := window.Start(now, hours)

	cands, err := s.gatherer.Run(ctx, userID, windowStart)
	if err != nil {
		return model.Feed{}, time.Time{}, fmt.Errorf("gather candidates: %w", err)
	}
	states, err := s.state.ReadAll(ctx, userID)
	if err != nil {
		return model.Feed{}, time.Time{}, fmt.Errorf("read user state: %w", err)
	}
	expires := window.NextChange(cands, states, now)

	visible, stats := window.Apply(cands, states, now)
	metrics.RecordFiltered("dismissed", stats.Dismissed)
	metrics.RecordFiltered("snoozed", stats.Snoozed)

	scored := scoring.Apply(s.scorer, visible, userID, now)
	items := dedupe.BySource(scored)
	metrics.RecordDeduplicated(len(scored) - len(items))

	sections, counts := section.Build(items)
	for _, t := range model.AttentionTypes {
		metrics.UpdateSectionSize(string(t), len(*sections.Bucket(t)))
	}

	return model.Feed{
		UserID:      userID,
		GeneratedAt: now,
		WindowStart: windowStart,
		WindowHours: hours,
		Sections:    sections,
		Counts:      counts,
	}, expires, nil
}

// Classify bands the user's feed together with the decision stream. A
// failing decision stream degrades to attention items only.
func (s *Service) Classify(ctx context.Context, userID string, windowHours int, portfolioID string) (model.Board, error) {
	ctx, span := tracing.Start(ctx, "attention.classify")
	defer span.End()
	span.SetAttributes(attribute.String("user_id", userID), attribute.String("portfolio_id", portfolioID))

	feed, err := s.Run(ctx, userID, windowHours)
	if err != nil {
		failSpan(span, err)
		return model.Board{}, err
	}

	var decisions []model.DecisionItem
	if s.decisions != nil {
		decisions, err = s.decisions.Decisions(ctx, userID)
		if err != nil {
			metrics.RecordErrorByComponent("decisions", "fetch")
			span.RecordError(err)
			s.logger.Warn(ctx, "decision stream unavailable", logger.String("user_id", userID), logger.Error(err))
			decisions = nil
		}
	}

	res := s.classifier.Classify(feed.Sections.Flatten(), decisions, portfolioID, s.now())
	metrics.RecordClassify()
	metrics.UpdateBandSize(string(model.BandNow), len(res.Board.Now))
	metrics.UpdateBandSize(string(model.BandSoon), len(res.Board.Soon))
	metrics.UpdateBandSize(string(model.BandAware), len(res.Board.Aware))
	for reason, n := range res.Suppressed {
		metrics.RecordSuppressed(reason, n)
	}
	span.SetAttributes(attribute.Int("items", res.Board.Summaries.Total))
	return res.Board, nil
}

// WriteDecision records a state decision and invalidates the user's feeds.
// A zero decision time is stamped with the service clock.
func (s *Service) WriteDecision(ctx context.Context, userID, attentionID string, d model.Decision) error {
	if userID == "" {
		return ErrMissingUser
	}
	if d.At.IsZero() {
		d.At = s.now()
	}
	if err := d.Validate(); err != nil {
		metrics.RecordStateWrite(string(d.Kind), "invalid")
		return err
	}
	if err := s.state.WriteDecision(ctx, userID, attentionID, d); err != nil {
		metrics.RecordStateWrite(string(d.Kind), "error")
		metrics.RecordErrorByComponent("state", "write")
		s.logger.Error(ctx, "state write failed",
			logger.String("user_id", userID),
			logger.String("attention_id", attentionID),
			logger.String("decision", string(d.Kind)),
			logger.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrStateWrite, err)
	}
	metrics.RecordStateWrite(string(d.Kind), "success")
	s.Invalidate(userID)
	return nil
}

// History returns the user's logged decisions for attentionID, or all of them
// when attentionID is empty.
func (s *Service) History(ctx context.Context, userID, attentionID string) ([]repository.LogEntry, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	h, ok := s.state.(HistoryStore)
	if !ok {
		return nil, ErrNoHistory
	}
	return h.History(ctx, userID, attentionID)
}

// MarkDone completes the deliverable or project behind sourceID.
func (s *Service) MarkDone(ctx context.Context, userID, sourceID string) error {
	return s.Resolve(ctx, userID, model.ActionMarkDone, sourceID, 0)
}

// Approve votes to approve a trade item.
func (s *Service) Approve(ctx context.Context, userID, sourceID string) error {
	return s.Resolve(ctx, userID, model.ActionApprove, sourceID, 0)
}

// Reject votes to reject a trade item.
func (s *Service) Reject(ctx context.Context, userID, sourceID string) error {
	return s.Resolve(ctx, userID, model.ActionReject, sourceID, 0)
}

// Defer postpones a trade item decision by hours.
func (s *Service) Defer(ctx context.Context, userID, sourceID string, hours int) error {
	return s.Resolve(ctx, userID, model.ActionDefer, sourceID, hours)
}

// Resolve dispatches a resolution action and invalidates the user's feeds on
// success. hours is only read by ActionDefer.
func (s *Service) Resolve(ctx context.Context, userID string, action model.ActionKind, sourceID string, hours int) error {
	if userID == "" {
		return ErrMissingUser
	}
	if sourceID == "" {
		return ErrMissingSourceID
	}
	if s.resolver == nil {
		return ErrNoResolver
	}

	var err error
	switch action {
	case model.ActionMarkDone:
		err = s.resolver.MarkDone(ctx, sourceID)
	case model.ActionApprove:
		err = s.resolver.Approve(ctx, userID, sourceID)
	case model.ActionReject:
		err = s.resolver.Reject(ctx, userID, sourceID)
	case model.ActionDefer:
		err = s.resolver.Defer(ctx, sourceID, hours)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	if err != nil {
		metrics.RecordResolution(string(action), "error")
		s.logger.Warn(ctx, "resolution failed",
			logger.String("user_id", userID),
			logger.String("action", string(action)),
			logger.String("source_id", sourceID),
			logger.Error(err),
		)
		return fmt.Errorf("%s %s: %w", action, sourceID, err)
	}
	metrics.RecordResolution(string(action), "success")
	s.Invalidate(userID)
	return nil
}

// Invalidate drops every cached feed of userID.
func (s *Service) Invalidate(userID string) {
	s.mu.Lock()
	s.versions[userID]++
	s.mu.Unlock()
	if s.onInvalidate != nil {
		s.onInvalidate(userID)
	}
}

func (s *Service) version(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.versions[userID]
}

func failSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
