// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elockenvitz/tesseract/internal/adapters/repository"
	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/pkg/logger"
	"github.com/elockenvitz/tesseract/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Run(ctx context.Context, userID string, windowHours int) (model.Feed, error)
	Classify(ctx context.Context, userID string, windowHours int, portfolioID string) (model.Board, error)
	WriteDecision(ctx context.Context, userID, attentionID string, d model.Decision) error
	History(ctx context.Context, userID, attentionID string) ([]repository.LogEntry, error)
	Resolve(ctx context.Context, userID string, action model.ActionKind, sourceID string, hours int) error
}

// Server wires HTTP routes for the attention API.
type Server struct {
	healthHandler     *HealthHandler
	attentionHandler  *AttentionHandler
	dashboardHandler  *DashboardHandler
	resolutionHandler *ResolutionHandler
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	now    func() time.Time
	logger logger.Logger
}

// WithClock sets the time source used to resolve relative snoozes.
func WithClock(now func() time.Time) Option {
	return func(o *serverOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := serverOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Named("api")
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		attentionHandler:  NewAttentionHandler(deps, o.now, o.logger),
		dashboardHandler:  NewDashboardHandler(deps, o.logger),
		resolutionHandler: NewResolutionHandler(deps, o.logger),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(RequireUser)
		r.Get("/attention", MetricsMiddleware(s.attentionHandler.HandleFeed, "attention"))
		r.Get("/attention/{attentionID}/decisions", MetricsMiddleware(s.attentionHandler.HandleHistory, "attention_history"))
		r.Post("/attention/{attentionID}/decisions", MetricsMiddleware(s.attentionHandler.HandleDecision, "attention_decision"))
		r.Get("/dashboard", MetricsMiddleware(s.dashboardHandler.HandleBoard, "dashboard"))
		r.Post("/resolutions/{action}", MetricsMiddleware(s.resolutionHandler.HandleResolve, "resolution"))
	})
}

// Handler returns a router with every route registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	s.Register(r)
	return r
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
