// Package handler wires territory endpoints to the territory service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"turfwars/internal/territory/models"
	"turfwars/internal/territory/store"

	id "turfwars/pkg/domain"
	"turfwars/pkg/platform/httputil"
	"turfwars/pkg/requestcontext"
)

// Service defines the territory operations the handler needs.
type Service interface {
	Claim(ctx context.Context, userID id.UserID, territoryID id.TerritoryID) (string, error)
	AddDefender(ctx context.Context, userID id.UserID, territoryID id.TerritoryID) (string, error)
	Get(ctx context.Context, territoryID id.TerritoryID) (*models.Territory, error)
	List(ctx context.Context, filter store.Filter) ([]*models.Territory, error)
}

// Handler serves the /territories routes.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a territory handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts territory endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/territories", h.HandleList)
	r.Get("/territories/{territoryID}", h.HandleGet)
	r.Post("/territories/{territoryID}/claim", h.HandleClaim)
	r.Post("/territories/{territoryID}/defend", h.HandleDefend)
}

// HandleList handles GET /territories. Supports ?controlled=true|false,
// ?club_id=<uuid> and ?limit=N.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{}
	if raw := r.URL.Query().Get("controlled"); raw != "" {
		controlled := raw == "true"
		filter.Controlled = &controlled
	}
	if raw := r.URL.Query().Get("club_id"); raw != "" {
		clubID, err := id.ParseClubID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.ClubID = clubID
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	territories, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"territories": territories})
}

// HandleGet handles GET /territories/{territoryID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	territoryID, err := id.ParseTerritoryID(chi.URLParam(r, "territoryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	territory, err := h.service.Get(r.Context(), territoryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, territory)
}

// HandleClaim handles POST /territories/{territoryID}/claim.
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	territoryID, err := id.ParseTerritoryID(chi.URLParam(r, "territoryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	message, err := h.service.Claim(ctx, userID, territoryID)
	if err != nil {
		h.logger.WarnContext(ctx, "territory claim failed",
			"request_id", requestcontext.RequestID(ctx),
			"territory_id", territoryID.String(),
			"user_id", userID.String(),
			"error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}

// HandleDefend handles POST /territories/{territoryID}/defend.
func (h *Handler) HandleDefend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	territoryID, err := id.ParseTerritoryID(chi.URLParam(r, "territoryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	message, err := h.service.AddDefender(ctx, userID, territoryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}
