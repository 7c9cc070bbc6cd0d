package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/pkg/logger"
)

// ResolutionHandler applies resolution actions to domain records.
type ResolutionHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewResolutionHandler creates a new resolution handler.
func NewResolutionHandler(deps Dependencies, l logger.Logger) *ResolutionHandler {
	return &ResolutionHandler{deps: deps, logger: l}
}

type resolutionRequest struct {
	SourceID string `json:"source_id"`
	Hours    int    `json:"hours,omitempty"`
}

func (req resolutionRequest) validate(action model.ActionKind) error {
	if strings.TrimSpace(req.SourceID) == "" {
		return errors.New("missing source_id")
	}
	if action == model.ActionDefer && req.Hours <= 0 {
		return errors.New("defer needs positive hours")
	}
	return nil
}

// HandleResolve handles POST /v1/resolutions/{action} requests where action
// is one of mark_done, approve, reject or defer.
func (h *ResolutionHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_resolution"
	action := model.ActionKind(chi.URLParam(r, "action"))

	var req resolutionRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(action); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.Resolve(r.Context(), UserID(r.Context()), action, req.SourceID, req.Hours); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ackResponse{Status: "resolved"})
}
