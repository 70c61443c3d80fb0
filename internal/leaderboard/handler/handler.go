// Package handler exposes the club leaderboard.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"turfwars/internal/leaderboard"

	"turfwars/pkg/platform/httputil"
)

// Projection defines the ranking read the handler needs.
type Projection interface {
	Top(ctx context.Context, limit int) ([]leaderboard.Entry, error)
}

// Handler serves GET /clubs/leaderboard.
type Handler struct {
	projection Projection
	logger     *slog.Logger
}

// New constructs a leaderboard handler.
func New(projection Projection, logger *slog.Logger) *Handler {
	return &Handler{projection: projection, logger: logger}
}

// Register mounts the leaderboard endpoint. Mounted before the /clubs/{clubID}
// param route so chi resolves the static segment first.
func (h *Handler) Register(r chi.Router) {
	r.Get("/clubs/leaderboard", h.HandleTop)
}

// HandleTop handles GET /clubs/leaderboard. Supports ?limit=N.
func (h *Handler) HandleTop(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.projection.Top(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"leaderboard": entries})
}
