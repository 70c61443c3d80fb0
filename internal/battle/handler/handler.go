// Package handler wires challenge resolution and the battle log to HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"turfwars/internal/battle/models"
	"turfwars/internal/battle/service"

	id "turfwars/pkg/domain"
	"turfwars/pkg/platform/httputil"
	"turfwars/pkg/requestcontext"
)

// Resolver defines the battle operations the handler needs.
type Resolver interface {
	Challenge(ctx context.Context, userID id.UserID, territoryID id.TerritoryID) (*service.Result, error)
	History(ctx context.Context, territoryID id.TerritoryID, limit int) ([]*models.BattleRecord, error)
}

// Handler serves challenge and battle history routes.
type Handler struct {
	resolver Resolver
	logger   *slog.Logger
}

// New constructs a battle handler.
func New(resolver Resolver, logger *slog.Logger) *Handler {
	return &Handler{resolver: resolver, logger: logger}
}

// Register mounts battle endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/territories/{territoryID}/challenge", h.HandleChallenge)
	r.Get("/territories/{territoryID}/battles", h.HandleHistory)
}

// HandleChallenge handles POST /territories/{territoryID}/challenge.
func (h *Handler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)
	start := time.Now()

	territoryID, err := id.ParseTerritoryID(chi.URLParam(r, "territoryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.resolver.Challenge(ctx, userID, territoryID)
	if err != nil {
		h.logger.WarnContext(ctx, "challenge failed",
			"request_id", requestID,
			"territory_id", territoryID.String(),
			"user_id", userID.String(),
			"error", err.Error())
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "challenge resolved",
		"request_id", requestID,
		"territory_id", territoryID.String(),
		"user_id", userID.String(),
		"victory", result.Victory,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleHistory handles GET /territories/{territoryID}/battles. Supports
// ?limit=N, newest first.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	territoryID, err := id.ParseTerritoryID(chi.URLParam(r, "territoryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := h.resolver.History(r.Context(), territoryID, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"battles": records})
}
