package handlers

import (
	"net/http"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
	"campusdrop/internal/logx"
	"campusdrop/internal/service/request"
)

// RequestHandler serves delivery request endpoints.
type RequestHandler struct {
	uc     requestUsecase
	logger logx.Logger
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(logger logx.Logger, uc requestUsecase) *RequestHandler {
	return &RequestHandler{uc: uc, logger: logger}
}

func (h *RequestHandler) one(r domain.Request) requestDTO {
	return requestToDTO(r, h.uc.ETA(&r))
}

func (h *RequestHandler) many(rs []domain.Request) []requestDTO {
	out := make([]requestDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, h.one(r))
	}
	return out
}

// Create handles POST /api/requests.
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	var req createRequestRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	in := request.CreateInput{
		RequesterID:    actorID,
		Pickup:         req.Pickup,
		Dropoff:        req.Dropoff,
		PackageDetails: req.PackageDetails,
	}
	if req.PreferredTime != nil {
		in.PreferredTime = *req.PreferredTime
	}

	created, err := h.uc.CreateRequest(r.Context(), in)
	if err != nil {
		writeAppError(h.logger, w, r, err, messages{
			apperr.ErrConflict:     "you already have an active delivery request",
			apperr.ErrUnauthorized: "only requesters can create delivery requests",
		})
		return
	}
	w.Header().Set("Location", "/api/requests/"+created.ID.String())
	writeJSON(h.logger, w, r, http.StatusCreated, h.one(created))
}

// Mine handles GET /api/requests/mine.
func (h *RequestHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	list, err := h.uc.ListForRequester(r.Context(), actorID)
	if err != nil {
		writeAppError(h.logger, w, r, err, nil)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, h.many(list))
}

// Active handles GET /api/requests/active. It replies null when the
// requester has no request in flight.
func (h *RequestHandler) Active(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	active, err := h.uc.GetActiveForRequester(r.Context(), actorID)
	if err != nil {
		writeAppError(h.logger, w, r, err, nil)
		return
	}
	if active == nil {
		writeJSON(h.logger, w, r, http.StatusOK, nil)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, h.one(*active))
}

// Biddable handles GET /api/requests/biddable.
func (h *RequestHandler) Biddable(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	list, err := h.uc.GetBiddableForDeliveryPerson(r.Context(), actorID)
	if err != nil {
		writeAppError(h.logger, w, r, err, nil)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, h.many(list))
}

// Assigned handles GET /api/requests/assigned.
func (h *RequestHandler) Assigned(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	list, err := h.uc.ListAssigned(r.Context(), actorID)
	if err != nil {
		writeAppError(h.logger, w, r, err, nil)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, h.many(list))
}

// Get handles GET /api/requests/{id}.
func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := actorAndID(h.logger, w, r, "id")
	if !ok {
		return
	}
	got, err := h.uc.Get(r.Context(), actorID, id)
	if err != nil {
		writeAppError(h.logger, w, r, err, messages{apperr.ErrNotFound: "request not found"})
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, h.one(got))
}

// UpdateStatus handles PATCH /api/requests/{id}/status.
func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actorID, id, ok := actorAndID(h.logger, w, r, "id")
	if !ok {
		return
	}
	var req updateStatusRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	updated, err := h.uc.AdvanceStatus(r.Context(), id, actorID, req.Status)
	if err != nil {
		writeAppError(h.logger, w, r, err, messages{
			apperr.ErrNotFound:          "request not found",
			apperr.ErrInvalid:           "unknown status",
			apperr.ErrInvalidState:      "request status changed, reload and retry",
			apperr.ErrUnauthorized:      "you cannot change the status of this request",
			apperr.ErrInvalidTransition: "status cannot move from the current one to " + string(req.Status),
		})
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, h.one(updated))
}

// AdminList handles GET /api/admin/requests.
func (h *RequestHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	actorID, ok := actor(h.logger, w, r)
	if !ok {
		return
	}
	list, err := h.uc.ListAll(r.Context(), actorID)
	if err != nil {
		writeAppError(h.logger, w, r, err, nil)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, h.many(list))
}
