package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/elockenvitz/tesseract/internal/adapters/repository"
	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/pkg/logger"
)

// AttentionHandler serves the feed and the per-item state decisions.
type AttentionHandler struct {
	deps   Dependencies
	now    func() time.Time
	logger logger.Logger
}

// NewAttentionHandler creates a new attention handler.
func NewAttentionHandler(deps Dependencies, now func() time.Time, l logger.Logger) *AttentionHandler {
	return &AttentionHandler{deps: deps, now: now, logger: l}
}

// HandleFeed handles GET /v1/attention?window_hours= requests.
func (h *AttentionHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_attention"
	hours, err := queryInt(r, "window_hours")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	feed, err := h.deps.Run(r.Context(), UserID(r.Context()), hours)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// decisionRequest is the body of POST /v1/attention/{attentionID}/decisions.
// A snooze takes either an absolute until or a relative snooze_hours.
type decisionRequest struct {
	Kind        model.DecisionKind `json:"kind"`
	Until       *time.Time         `json:"until,omitempty"`
	SnoozeHours int                `json:"snooze_hours,omitempty"`
	Reason      string             `json:"reason,omitempty"`
	Note        string             `json:"note,omitempty"`
}

func (d decisionRequest) decision(now time.Time) (model.Decision, error) {
	if strings.TrimSpace(string(d.Kind)) == "" {
		return model.Decision{}, errors.New("missing kind")
	}
	out := model.Decision{Kind: d.Kind, Until: d.Until, Reason: d.Reason, Note: d.Note, At: now}
	if d.Kind == model.DecisionSnooze && out.Until == nil && d.SnoozeHours > 0 {
		until := now.Add(time.Duration(d.SnoozeHours) * time.Hour)
		out.Until = &until
	}
	return out, nil
}

// HandleDecision handles POST /v1/attention/{attentionID}/decisions requests.
func (h *AttentionHandler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_decision"
	var req decisionRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	d, err := req.decision(h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.WriteDecision(r.Context(), UserID(r.Context()), chi.URLParam(r, "attentionID"), d); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "recorded"})
}

type historyResponse struct {
	Entries []repository.LogEntry `json:"entries"`
}

// HandleHistory handles GET /v1/attention/{attentionID}/decisions requests.
func (h *AttentionHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.History(r.Context(), UserID(r.Context()), chi.URLParam(r, "attentionID"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Entries: entries})
}
