package handlers

import (
	"net/http"

	"campusdrop/internal/apperr"
	"campusdrop/internal/logx"
	"campusdrop/internal/service/user"
)

// UserHandler serves profile and admin endpoints.
type UserHandler struct {
	uc     userUsecase
	logger logx.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(logger logx.Logger, uc userUsecase) *UserHandler {
	return &UserHandler{uc: uc, logger: logger}
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	u, err := h.uc.Get(r.Context(), actorID)
	if err != nil {
		writeAppError(h.logger, w, r, err, messages{apperr.ErrNotFound: "profile not found"})
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, userToDTO(u))
}

// SetAvailability handles PATCH /api/users/me/availability.
func (h *UserHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	var req availabilityRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	u, err := h.uc.SetAvailability(r.Context(), actorID, req.Active)
	if err != nil {
		writeAppError(h.logger, w, r, err, messages{
			apperr.ErrUnauthorized: "only delivery persons have availability",
		})
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, userToDTO(u))
}

// Create handles POST /api/admin/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	var req createUserRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	in := user.CreateInput{FullName: req.FullName, Role: req.Role, Active: req.Active}
	if req.ID != nil {
		in.ID = *req.ID
	}
	u, err := h.uc.Create(r.Context(), actorID, in)
	if err != nil {
		writeAppError(h.logger, w, r, err, messages{apperr.ErrConflict: "user already exists"})
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, userToDTO(u))
}

// Block handles PATCH /api/admin/users/{id}/block.
func (h *UserHandler) Block(w http.ResponseWriter, r *http.Request) {
	actorID, userID, ok := actorAndID(h.logger, w, r, "id")
	if !ok {
		return
	}
	var req blockRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	u, err := h.uc.SetBlocked(r.Context(), actorID, userID, req.Blocked)
	if err != nil {
		writeAppError(h.logger, w, r, err, messages{apperr.ErrNotFound: "user not found"})
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, userToDTO(u))
}

// Stats handles GET /api/admin/stats.
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	st, err := h.uc.Stats(r.Context(), actorID)
	if err != nil {
		writeAppError(h.logger, w, r, err, nil)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, statsToDTO(st))
}
