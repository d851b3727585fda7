package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType classifies a persisted notification.
type NotificationType string

// List of notification types
const (
	NotifNewRequest       NotificationType = "new_delivery_request"
	NotifNewBid           NotificationType = "new_bid"
	NotifBidAccepted      NotificationType = "bid_accepted"
	NotifStatusUpdate     NotificationType = "status_update"
	NotifPaymentCompleted NotificationType = "payment_completed"
	NotifNewReview        NotificationType = "new_review"
)

// Notification is a durable inbox entry. Only IsRead ever changes.
type Notification struct {
	ID          uuid.UUID
	RecipientID uuid.UUID
	SenderID    *uuid.UUID
	Type        NotificationType
	RequestID   *uuid.UUID
	Message     string
	IsRead      bool
	CreatedAt   time.Time
}
