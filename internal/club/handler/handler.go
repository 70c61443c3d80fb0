// Package handler wires club endpoints to the club service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"turfwars/internal/club/models"
	"turfwars/internal/club/store"

	id "turfwars/pkg/domain"
	"turfwars/pkg/platform/httputil"
	"turfwars/pkg/requestcontext"
)

// Service defines the club operations the handler needs.
type Service interface {
	Create(ctx context.Context, founderID id.UserID, in models.CreateClubInput) (*models.Club, error)
	Join(ctx context.Context, userID id.UserID, clubID id.ClubID) (string, error)
	Leave(ctx context.Context, userID id.UserID) (string, error)
	Update(ctx context.Context, callerID id.UserID, clubID id.ClubID, patch models.UpdatePatch) (*models.Club, error)
	Get(ctx context.Context, clubID id.ClubID) (*models.Club, error)
	List(ctx context.Context, filter store.Filter) ([]*models.Club, error)
	Members(ctx context.Context, clubID id.ClubID) ([]models.Member, error)
}

// Handler serves the /clubs routes.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a club handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts club endpoints on the router. All routes assume the auth
// middleware already ran.
func (h *Handler) Register(r chi.Router) {
	r.Post("/clubs", h.HandleCreate)
	r.Get("/clubs", h.HandleList)
	r.Post("/clubs/leave", h.HandleLeave)
	r.Get("/clubs/{clubID}", h.HandleGet)
	r.Patch("/clubs/{clubID}", h.HandleUpdate)
	r.Post("/clubs/{clubID}/join", h.HandleJoin)
	r.Get("/clubs/{clubID}/members", h.HandleMembers)
}

// HandleCreate handles POST /clubs.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CreateClubRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	club, err := h.service.Create(ctx, userID, req.Input())
	if err != nil {
		h.logger.WarnContext(ctx, "club creation failed",
			"request_id", requestID, "user_id", userID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "club created",
		"request_id", requestID,
		"club_id", club.ID.String(),
		"founder_id", userID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, club)
}

// HandleList handles GET /clubs. Supports ?recruiting=true, ?max_min_level=N
// and ?limit=N.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{
		RecruitingOnly: r.URL.Query().Get("recruiting") == "true",
		MaxMinLevel:    queryInt(r, "max_min_level"),
		Limit:          queryInt(r, "limit"),
	}

	clubs, err := h.service.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"clubs": clubs})
}

// HandleGet handles GET /clubs/{clubID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	clubID, err := id.ParseClubID(chi.URLParam(r, "clubID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	club, err := h.service.Get(r.Context(), clubID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, club)
}

// HandleUpdate handles PATCH /clubs/{clubID}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	userID := requestcontext.UserID(ctx)

	clubID, err := id.ParseClubID(chi.URLParam(r, "clubID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateClubRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	club, err := h.service.Update(ctx, userID, clubID, req.UpdatePatch)
	if err != nil {
		h.logger.WarnContext(ctx, "club update failed",
			"request_id", requestID, "club_id", clubID.String(), "user_id", userID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, club)
}

// HandleJoin handles POST /clubs/{clubID}/join.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	clubID, err := id.ParseClubID(chi.URLParam(r, "clubID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	message, err := h.service.Join(ctx, userID, clubID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "member joined club",
		"request_id", requestcontext.RequestID(ctx),
		"club_id", clubID.String(),
		"user_id", userID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}

// HandleLeave handles POST /clubs/leave. The club is implied by the caller's
// membership, so there is no club ID in the path.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	message, err := h.service.Leave(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "member left club",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": message})
}

// HandleMembers handles GET /clubs/{clubID}/members.
func (h *Handler) HandleMembers(w http.ResponseWriter, r *http.Request) {
	clubID, err := id.ParseClubID(chi.URLParam(r, "clubID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	members, err := h.service.Members(r.Context(), clubID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"members": members})
}

// queryInt parses a non-negative integer query parameter, returning 0 when
// absent or malformed.
func queryInt(r *http.Request, key string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
