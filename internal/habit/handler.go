package habit

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/habitstack/service-habit-go/internal/token"
)

// Handler exposes HTTP endpoints for habit CRUD. All routes sit behind the
// auth middleware, which guarantees an identity in the request context.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type createRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := token.IdentityFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
		return
	}
	habits, err := h.svc.List(r.Context(), id.UserID)
	if err != nil {
		h.logger.Warnw("list habits failed", "err", err, "user_id", id.UserID)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.writeJSON(w, http.StatusOK, habits)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := token.IdentityFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	created, err := h.svc.Create(r.Context(), id.UserID, req.Title, req.Description)
	if err != nil {
		if errors.Is(err, ErrTitleRequired) {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
			return
		}
		h.logger.Warnw("create habit failed", "err", err, "user_id", id.UserID)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	h.writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := token.IdentityFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
		return
	}
	habitID, err := h.pathID(r)
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "habit not found"})
		return
	}
	var patch Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	updated, err := h.svc.Update(r.Context(), id.UserID, habitID, patch)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "habit not found"})
		case errors.Is(err, ErrTitleRequired):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		default:
			h.logger.Warnw("update habit failed", "err", err, "habit_id", habitID)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := token.IdentityFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
		return
	}
	habitID, err := h.pathID(r)
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "habit not found"})
		return
	}
	if err := h.svc.Delete(r.Context(), id.UserID, habitID); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "habit not found"})
			return
		}
		h.logger.Warnw("delete habit failed", "err", err, "habit_id", habitID)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
