//go:generate mockgen -source=events.go -destination=eventsmock/publisher.go -package=eventsmock

// Package events defines live event messages and the sinks that carry them.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campusdrop/internal/domain"
)

// Type names a live event.
type Type string

// List of live event types
const (
	NewRequest           Type = "new_request"
	NewBid               Type = "new_bid"
	BidAccepted          Type = "bid_accepted"
	RequestStatusUpdated Type = "request_status_updated"
	PaymentCompleted     Type = "payment_completed"
	NewReview            Type = "new_review"
)

// BroadcastTopic receives events every delivery person may care about.
const BroadcastTopic = "broadcast"

// RequestTopic returns the topic scoped to one request.
func RequestTopic(id uuid.UUID) string { return "request:" + id.String() }

// Message is an invalidation hint. Clients refetch state on receipt.
type Message struct {
	Type             Type                 `json:"type"`
	Topic            string               `json:"topic"`
	RequestID        uuid.UUID            `json:"request_id"`
	BidID            *uuid.UUID           `json:"bid_id,omitempty"`
	DeliveryPersonID *uuid.UUID           `json:"delivery_person_id,omitempty"`
	Status           domain.RequestStatus `json:"status,omitempty"`
	Amount           int64                `json:"amount,omitempty"`
	At               time.Time            `json:"at"`
}

// Publisher is a live event sink. Publish must not block on slow consumers.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, msg Message) error
}
