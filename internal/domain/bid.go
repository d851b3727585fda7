package domain

import (
	"time"

	"github.com/google/uuid"
)

// Bid is a delivery person's priced offer on a request.
type Bid struct {
	ID               uuid.UUID
	RequestID        uuid.UUID
	DeliveryPersonID uuid.UUID
	Amount           int64
	Status           BidStatus
	CreatedAt        time.Time
}

// AcceptResult is the outcome of accepting a bid.
type AcceptResult struct {
	Bid     Bid
	Request Request
	// Rejected counts sibling bids moved to rejected.
	Rejected int64
}
