// Package storetx declares the entity store used by the marketplace core.
//
// Missing entities are reported as a nil pointer with a nil error. Uniqueness
// violations are reported as errors wrapping apperr.ErrConflict. Conditional
// writes return applied=false when their guard did not match.
package storetx

import (
	"context"

	"github.com/google/uuid"

	"campusdrop/internal/domain"
)

// UserQueries reads and writes marketplace profiles.
type UserQueries interface {
	InsertUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// LockUser reads the user and holds a row lock until the transaction ends.
	LockUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListAvailableDeliveryPersons(ctx context.Context) ([]domain.User, error)
	SetUserAvailability(ctx context.Context, id uuid.UUID, active bool) (bool, error)
	SetUserBlocked(ctx context.Context, id uuid.UUID, blocked bool) (bool, error)
	UpdateUserRating(ctx context.Context, id uuid.UUID, avg float64) error
	UpdateUserCompleted(ctx context.Context, id uuid.UUID, completed int) error
	CountUsersByRole(ctx context.Context) (map[domain.Role]int, error)
	TopDeliveryPersons(ctx context.Context, limit int) ([]domain.DeliveryPersonSummary, error)
}

// RequestQueries reads and writes delivery requests.
type RequestQueries interface {
	InsertRequest(ctx context.Context, r *domain.Request) error
	GetRequest(ctx context.Context, id uuid.UUID) (*domain.Request, error)
	// GetRequestForShare reads the request and blocks conflicting writers
	// until the transaction ends.
	GetRequestForShare(ctx context.Context, id uuid.UUID) (*domain.Request, error)
	GetActiveRequest(ctx context.Context, requesterID uuid.UUID) (*domain.Request, error)
	ListRequestsByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.Request, error)
	// ListRequestsAssignedTo returns requests of the delivery person, newest
	// first, optionally restricted to statuses.
	ListRequestsAssignedTo(ctx context.Context, deliveryPersonID uuid.UUID, statuses ...domain.RequestStatus) ([]domain.Request, error)
	// ListOpenRequests returns pending requests without a selected bid, newest first.
	ListOpenRequests(ctx context.Context) ([]domain.Request, error)
	ListRequests(ctx context.Context) ([]domain.Request, error)
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, from, to domain.RequestStatus) (bool, error)
	// AssignRequest moves a pending request to assigned.
	AssignRequest(ctx context.Context, id, deliveryPersonID, bidID uuid.UUID, fare int64) (bool, error)
	CountDelivered(ctx context.Context, deliveryPersonID uuid.UUID) (int, error)
	CountRequestsByStatus(ctx context.Context) (map[domain.RequestStatus]int, error)
}

// BidQueries reads and writes bids.
type BidQueries interface {
	InsertBid(ctx context.Context, b *domain.Bid) error
	GetBid(ctx context.Context, id uuid.UUID) (*domain.Bid, error)
	// ListBidsByRequest orders by amount, then creation time.
	ListBidsByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.Bid, error)
	HasBid(ctx context.Context, requestID, deliveryPersonID uuid.UUID) (bool, error)
	// AcceptBid moves a pending bid to accepted.
	AcceptBid(ctx context.Context, id uuid.UUID) (bool, error)
	RejectSiblingBids(ctx context.Context, requestID, acceptedBidID uuid.UUID) (int64, error)
}

// NotificationQueries reads and writes the notification inbox.
type NotificationQueries interface {
	InsertNotifications(ctx context.Context, ns []domain.Notification) error
	GetNotification(ctx context.Context, id uuid.UUID) (*domain.Notification, error)
	ListNotifications(ctx context.Context, recipientID uuid.UUID, limit int) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
}

// PaymentQueries reads and writes payments.
type PaymentQueries interface {
	InsertPayment(ctx context.Context, p *domain.Payment) error
	GetPaymentByRequest(ctx context.Context, requestID uuid.UUID) (*domain.Payment, error)
}

// ReviewQueries reads and writes reviews.
type ReviewQueries interface {
	InsertReview(ctx context.Context, r *domain.Review) error
	// ListReviewsFor returns reviews received by the user, newest first.
	ListReviewsFor(ctx context.Context, revieweeID uuid.UUID) ([]domain.Review, error)
}

// Queries is every read and write the core issues.
type Queries interface {
	UserQueries
	RequestQueries
	BidQueries
	NotificationQueries
	PaymentQueries
	ReviewQueries
}

// Runner is a transaction runner. fn's writes become visible all at once
// when it returns nil and are discarded otherwise.
type Runner interface {
	WithTx(ctx context.Context, fn func(q Queries) error) error
}

// Store is autocommit Queries plus transactions.
type Store interface {
	Queries
	Runner
}
