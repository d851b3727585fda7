package handlers

import (
	"net/http"

	"campusdrop/internal/apperr"
	"campusdrop/internal/logx"
)

// PaymentHandler serves payment endpoints.
type PaymentHandler struct {
	uc     paymentUsecase
	logger logx.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(logger logx.Logger, uc paymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc, logger: logger}
}

// Confirm handles POST /api/requests/{id}/payment.
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	actorID, requestID, ok := actorAndID(h.logger, w, r, "id")
	if !ok {
		return
	}
	var req confirmPaymentRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}
	p, err := h.uc.ConfirmPayment(r.Context(), requestID, actorID, req.Amount)
	if err != nil {
		writeAppError(h.logger, w, r, err, messages{
			apperr.ErrNotFound:     "request not found",
			apperr.ErrInvalid:      "payment amount must be positive",
			apperr.ErrInvalidState: "request is not delivered yet",
			apperr.ErrConflict:     "payment already confirmed",
			apperr.ErrUnauthorized: "only the assigned delivery person can confirm payment",
		})
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, paymentToDTO(p))
}

// Get handles GET /api/requests/{id}/payment.
func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actorID, requestID, ok := actorAndID(h.logger, w, r, "id")
	if !ok {
		return
	}
	p, err := h.uc.GetPayment(r.Context(), requestID, actorID)
	if err != nil {
		writeAppError(h.logger, w, r, err, messages{apperr.ErrNotFound: "payment not found"})
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, paymentToDTO(p))
}
