package api

import (
	"net/http"

	"github.com/elockenvitz/tesseract/pkg/logger"
)

// DashboardHandler serves the banded board.
type DashboardHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps Dependencies, l logger.Logger) *DashboardHandler {
	return &DashboardHandler{deps: deps, logger: l}
}

// HandleBoard handles GET /v1/dashboard?window_hours=&portfolio_id= requests.
func (h *DashboardHandler) HandleBoard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_dashboard"
	hours, err := queryInt(r, "window_hours")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	board, err := h.deps.Classify(r.Context(), UserID(r.Context()), hours, r.URL.Query().Get("portfolio_id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}
