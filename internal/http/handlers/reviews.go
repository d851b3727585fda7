package handlers

import (
	"net/http"

	"campusdrop/internal/apperr"
	"campusdrop/internal/logx"
	"campusdrop/internal/service/rating"
)

// ReviewHandler serves review endpoints.
type ReviewHandler struct {
	uc     reviewUsecase
	logger logx.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(logger logx.Logger, uc reviewUsecase) *ReviewHandler {
	return &ReviewHandler{uc: uc, logger: logger}
}

// Create handles POST /api/requests/{id}/reviews.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, requestID, ok := actorAndID(h.logger, w, r, "id")
	if !ok {
		return
	}
	var req createReviewRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	rev, err := h.uc.RecordReview(r.Context(), rating.ReviewInput{
		RequestID:  requestID,
		ReviewerID: actorID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		writeAppError(h.logger, w, r, err, messages{
			apperr.ErrNotFound:     "request not found",
			apperr.ErrInvalid:      "rating must be between 1 and 5",
			apperr.ErrInvalidState: "only delivered requests can be reviewed",
			apperr.ErrConflict:     "you have already reviewed this request",
			apperr.ErrUnauthorized: "only the requester can review this delivery",
		})
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, reviewToDTO(rev))
}

// ListForUser handles GET /api/users/{id}/reviews.
func (h *ReviewHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := actorAndID(h.logger, w, r, "id")
	if !ok {
		return
	}
	list, err := h.uc.ListFor(r.Context(), userID)
	if err != nil {
		writeAppError(h.logger, w, r, err, messages{apperr.ErrNotFound: "user not found"})
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, reviewsToDTO(list))
}
