package handlers

import (
	"net/http"

	"campusdrop/internal/apperr"
	"campusdrop/internal/logx"
)

// NotificationHandler serves the notification inbox.
type NotificationHandler struct {
	uc     inboxUsecase
	logger logx.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(logger logx.Logger, uc inboxUsecase) *NotificationHandler {
	return &NotificationHandler{uc: uc, logger: logger}
}

// List handles GET /api/notifications.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	list, err := h.uc.List(r.Context(), actorID)
	if err != nil {
		writeAppError(h.logger, w, r, err, nil)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, notificationsToDTO(list))
}

// MarkRead handles PATCH /api/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := actorAndID(h.logger, w, r, "id")
	if !ok {
		return
	}
	if err := h.uc.MarkRead(r.Context(), actorID, id); err != nil {
		writeAppError(h.logger, w, r, err, messages{apperr.ErrNotFound: "notification not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead handles PATCH /api/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	n, err := h.uc.MarkAllRead(r.Context(), actorID)
	if err != nil {
		writeAppError(h.logger, w, r, err, nil)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, map[string]int64{"updated": n})
}
