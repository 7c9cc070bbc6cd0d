package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/elockenvitz/tesseract/internal/adapters/repository"
	service "github.com/elockenvitz/tesseract/internal/app"
	"github.com/elockenvitz/tesseract/internal/domain/model"
	"github.com/elockenvitz/tesseract/pkg/logger"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrMissingUser = errors.New("missing " + UserHeader + " header")
)

// NewKind tags an operation with an error kind.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags an operation with an error kind and keeps the cause.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// writeServiceError maps service and adapter errors onto the error envelope.
// Server-side failures are logged.
func writeServiceError(w http.ResponseWriter, r *http.Request, l logger.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrMissingUser), errors.Is(err, repository.ErrMissingUser):
		writeError(w, http.StatusUnauthorized, "missing_user", err)
	case errors.Is(err, model.ErrInvalidDecision),
		errors.Is(err, service.ErrUnknownAction),
		errors.Is(err, service.ErrMissingSourceID),
		errors.Is(err, repository.ErrMissingAttentionID),
		errors.Is(err, service.ErrInvalidHours):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrNotDeciding):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, service.ErrNoResolver), errors.Is(err, service.ErrNoHistory):
		writeError(w, http.StatusNotImplemented, "not_implemented", err)
	case errors.Is(err, service.ErrStateWrite):
		l.Error(r.Context(), "state write failed", logger.String("path", r.URL.Path), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "state_write_failed", err)
	default:
		l.Error(r.Context(), "request failed", logger.String("path", r.URL.Path), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
