package handlers

import (
	"net/http"

	"campusdrop/internal/apperr"
	"campusdrop/internal/logx"
)

// BidHandler serves bid endpoints.
type BidHandler struct {
	uc     bidUsecase
	eta    etaEstimator
	logger logx.Logger
}

// NewBidHandler creates a new BidHandler. eta fills in the request returned
// by Accept.
func NewBidHandler(logger logx.Logger, uc bidUsecase, eta etaEstimator) *BidHandler {
	return &BidHandler{uc: uc, eta: eta, logger: logger}
}

// Place handles POST /api/requests/{id}/bids.
func (h *BidHandler) Place(w http.ResponseWriter, r *http.Request) {
	actorID, requestID, ok := actorAndID(h.logger, w, r, "id")
	if !ok {
		return
	}
	var req placeBidRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	b, err := h.uc.PlaceBid(r.Context(), requestID, actorID, req.Amount)
	if err != nil {
		writeAppError(h.logger, w, r, err, messages{
			apperr.ErrNotFound:     "request not found",
			apperr.ErrInvalid:      "bid amount must be positive",
			apperr.ErrInvalidState: "request is no longer open for bids",
			apperr.ErrConflict:     "you have already placed a bid on this request",
			apperr.ErrUnauthorized: "only delivery persons can bid",
		})
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, bidToDTO(b))
}

// List handles GET /api/requests/{id}/bids, lowest amount first.
func (h *BidHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, requestID, ok := actorAndID(h.logger, w, r, "id")
	if !ok {
		return
	}
	bids, err := h.uc.ListBids(r.Context(), requestID, actorID)
	if err != nil {
		writeAppError(h.logger, w, r, err, messages{apperr.ErrNotFound: "request not found"})
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, bidsToDTO(bids))
}

// Accept handles POST /api/bids/{id}/accept.
func (h *BidHandler) Accept(w http.ResponseWriter, r *http.Request) {
	actorID, bidID, ok := actorAndID(h.logger, w, r, "id")
	if !ok {
		return
	}
	res, err := h.uc.AcceptBid(r.Context(), bidID, actorID)
	if err != nil {
		writeAppError(h.logger, w, r, err, messages{
			apperr.ErrNotFound:     "bid not found",
			apperr.ErrInvalidState: "bid is no longer available",
			apperr.ErrUnauthorized: "only the requester can accept bids",
		})
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, acceptBidResponse{
		Bid:      bidToDTO(res.Bid),
		Request:  requestToDTO(res.Request, h.eta.ETA(&res.Request)),
		Rejected: res.Rejected,
	})
}
