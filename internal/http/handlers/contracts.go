package handlers

import (
	"context"

	"github.com/google/uuid"

	"campusdrop/internal/domain"
	"campusdrop/internal/service/rating"
	"campusdrop/internal/service/request"
	"campusdrop/internal/service/user"
)

type requestUsecase interface {
	CreateRequest(ctx context.Context, in request.CreateInput) (domain.Request, error)
	AdvanceStatus(ctx context.Context, requestID, actorID uuid.UUID, target domain.RequestStatus) (domain.Request, error)
	Get(ctx context.Context, actorID, requestID uuid.UUID) (domain.Request, error)
	GetActiveForRequester(ctx context.Context, requesterID uuid.UUID) (*domain.Request, error)
	ListForRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.Request, error)
	GetBiddableForDeliveryPerson(ctx context.Context, deliveryPersonID uuid.UUID) ([]domain.Request, error)
	ListAssigned(ctx context.Context, deliveryPersonID uuid.UUID) ([]domain.Request, error)
	ListAll(ctx context.Context, adminID uuid.UUID) ([]domain.Request, error)
	ETA(r *domain.Request) int
}

type etaEstimator interface {
	ETA(r *domain.Request) int
}

type bidUsecase interface {
	PlaceBid(ctx context.Context, requestID, deliveryPersonID uuid.UUID, amount int64) (domain.Bid, error)
	AcceptBid(ctx context.Context, bidID, actorID uuid.UUID) (domain.AcceptResult, error)
	ListBids(ctx context.Context, requestID, actorID uuid.UUID) ([]domain.Bid, error)
}

type paymentUsecase interface {
	ConfirmPayment(ctx context.Context, requestID, actorID uuid.UUID, amount int64) (domain.Payment, error)
	GetPayment(ctx context.Context, requestID, actorID uuid.UUID) (domain.Payment, error)
}

type reviewUsecase interface {
	RecordReview(ctx context.Context, in rating.ReviewInput) (domain.Review, error)
	ListFor(ctx context.Context, userID uuid.UUID) ([]domain.Review, error)
}

type inboxUsecase interface {
	List(ctx context.Context, actorID uuid.UUID) ([]domain.Notification, error)
	MarkRead(ctx context.Context, actorID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, actorID uuid.UUID) (int64, error)
}

type userUsecase interface {
	Create(ctx context.Context, adminID uuid.UUID, in user.CreateInput) (domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (domain.User, error)
	SetAvailability(ctx context.Context, actorID uuid.UUID, active bool) (domain.User, error)
	SetBlocked(ctx context.Context, adminID, userID uuid.UUID, blocked bool) (domain.User, error)
	Stats(ctx context.Context, adminID uuid.UUID) (domain.Stats, error)
}
