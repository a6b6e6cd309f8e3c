package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/televizor/billing/internal/domain"
)

// ViewerPasswordHeader carries the viewer admin password.
const ViewerPasswordHeader = "X-Viewer-Password"

func (h *Handler) HandleViewerStart(w http.ResponseWriter, r *http.Request) {
	err := h.viewer.Start(r.Header.Get(ViewerPasswordHeader))
	switch {
	case errors.Is(err, domain.ErrBadPassword):
		respondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrViewerRunning):
		respondError(w, http.StatusConflict, err.Error())
	case err != nil:
		slog.Error("start viewer", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	default:
		respondJSON(w, http.StatusOK, map[string]string{"state": "running"})
	}
}

func (h *Handler) HandleViewerStop(w http.ResponseWriter, r *http.Request) {
	err := h.viewer.Stop(r.Header.Get(ViewerPasswordHeader))
	switch {
	case errors.Is(err, domain.ErrBadPassword):
		respondError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrViewerNotRunning):
		respondError(w, http.StatusConflict, err.Error())
	case err != nil:
		slog.Error("stop viewer", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	default:
		respondJSON(w, http.StatusOK, map[string]string{"state": "stopped"})
	}
}

func (h *Handler) HandleViewerStatus(w http.ResponseWriter, r *http.Request) {
	state, err := h.viewer.Status(r.Header.Get(ViewerPasswordHeader))
	if errors.Is(err, domain.ErrBadPassword) {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"state": string(state)})
}
