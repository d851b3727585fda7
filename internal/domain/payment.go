package domain

import (
	"time"

	"github.com/google/uuid"
)

type (
	// PaymentStatus is the settlement state of a payment.
	PaymentStatus string
	// PaymentMethod is how the payment was settled.
	PaymentMethod string
)

// List of payment statuses and methods
const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"

	PaymentCash PaymentMethod = "cash"
)

// Payment is the single recorded confirmation for a delivered request.
type Payment struct {
	ID        uuid.UUID
	RequestID uuid.UUID
	Amount    int64
	Method    PaymentMethod
	Status    PaymentStatus
	CreatedAt time.Time
}
