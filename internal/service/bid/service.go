// Package bid owns bids and the accept-bid transaction.
package bid

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
	"campusdrop/internal/logx"
	"campusdrop/internal/metrics"
	"campusdrop/internal/ports/events"
	"campusdrop/internal/ports/storetx"
	"campusdrop/internal/service/guard"
	"campusdrop/internal/service/notify"
)

// Service - bid manager.
type Service struct {
	store            storetx.Store
	notifier         dispatcher
	operationTimeout time.Duration
	logger           logx.Logger
	ops              *prometheus.CounterVec
	now              func() time.Time
}

// NewService creates a new Service. ops may be nil.
func NewService(store storetx.Store, notifier dispatcher, timeout time.Duration, logger logx.Logger, ops *prometheus.CounterVec) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		store:            store,
		notifier:         notifier,
		operationTimeout: timeout,
		logger:           logger,
		ops:              ops,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// PlaceBid stores a pending bid of the delivery person on a pending request
// and notifies the requester.
func (s *Service) PlaceBid(ctx context.Context, requestID, deliveryPersonID uuid.UUID, amount int64) (domain.Bid, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var b domain.Bid
	err := s.store.WithTx(ctx, func(q storetx.Queries) error {
		actor, err := guard.Actor(ctx, q, deliveryPersonID)
		if err != nil {
			return err
		}
		// FOR SHARE: an AcceptBid on this request waits until this bid is
		// committed, so it is rejected along with its siblings.
		r, err := q.GetRequestForShare(ctx, requestID)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("request %s: %w", requestID, apperr.ErrNotFound)
		}
		if r.Status != domain.StatusPending {
			return fmt.Errorf("request %s is %s: %w", r.ID, r.Status, apperr.ErrInvalidState)
		}
		if actor.Role != domain.RoleDeliveryPerson {
			return fmt.Errorf("actor %s is %s: %w", actor.ID, actor.Role, apperr.ErrUnauthorized)
		}
		if amount <= 0 {
			return fmt.Errorf("bid amount %d: %w", amount, apperr.ErrInvalid)
		}

		b = domain.Bid{
			ID:               uuid.New(),
			RequestID:        r.ID,
			DeliveryPersonID: actor.ID,
			Amount:           amount,
			Status:           domain.BidPending,
			CreatedAt:        s.now(),
		}
		if err := q.InsertBid(ctx, &b); err != nil {
			return err
		}

		return s.notifier.Persist(ctx, q, notify.New(r.RequesterID, domain.NotifNewBid, r.ID, &b.DeliveryPersonID,
			fmt.Sprintf("New bid of %d on your delivery request", b.Amount), b.CreatedAt))
	})
	metrics.ObserveOperation(s.ops, "place_bid", err)
	if err != nil {
		return domain.Bid{}, guard.Tx("place bid", err)
	}

	s.notifier.Emit(ctx, events.Message{
		Type:             events.NewBid,
		Topic:            events.RequestTopic(b.RequestID),
		RequestID:        b.RequestID,
		BidID:            &b.ID,
		DeliveryPersonID: &b.DeliveryPersonID,
		Status:           domain.StatusPending,
		Amount:           b.Amount,
		At:               b.CreatedAt,
	})

	s.logger.Info("bid placed",
		logx.String("event", "bid_placed"),
		logx.UUID("bid_id", b.ID),
		logx.UUID("request_id", b.RequestID),
		logx.UUID("delivery_person_id", b.DeliveryPersonID),
		logx.Int64("amount", b.Amount),
	)
	return b, nil
}

// AcceptBid assigns the bidder, fixes the final fare, accepts the bid and
// rejects every sibling in one transaction. Of several racing calls on the
// same request exactly one succeeds; the rest get apperr.ErrInvalidState.
// Rejected bidders are not notified.
func (s *Service) AcceptBid(ctx context.Context, bidID, actorID uuid.UUID) (domain.AcceptResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var res domain.AcceptResult
	err := s.store.WithTx(ctx, func(q storetx.Queries) error {
		if _, err := guard.Actor(ctx, q, actorID); err != nil {
			return err
		}
		b, err := q.GetBid(ctx, bidID)
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("bid %s: %w", bidID, apperr.ErrNotFound)
		}
		r, err := q.GetRequest(ctx, b.RequestID)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("request %s: %w", b.RequestID, apperr.ErrNotFound)
		}
		if r.RequesterID != actorID {
			return fmt.Errorf("only the requester accepts bids on %s: %w", r.ID, apperr.ErrUnauthorized)
		}

		ok, err := q.AssignRequest(ctx, r.ID, b.DeliveryPersonID, b.ID, b.Amount)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("request %s is no longer pending: %w", r.ID, apperr.ErrInvalidState)
		}
		if ok, err = q.AcceptBid(ctx, b.ID); err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("bid %s is no longer pending: %w", b.ID, apperr.ErrInvalidState)
		}
		rejected, err := q.RejectSiblingBids(ctx, r.ID, b.ID)
		if err != nil {
			return err
		}

		assigned, err := q.GetRequest(ctx, r.ID)
		if err != nil {
			return err
		}
		res.Bid = *b
		res.Bid.Status = domain.BidAccepted
		res.Request = *assigned
		res.Rejected = rejected

		return s.notifier.Persist(ctx, q, notify.New(b.DeliveryPersonID, domain.NotifBidAccepted, r.ID, &r.RequesterID,
			fmt.Sprintf("Your bid of %d was accepted", b.Amount), s.now()))
	})
	metrics.ObserveOperation(s.ops, "accept_bid", err)
	if err != nil {
		return domain.AcceptResult{}, guard.Tx("accept bid", err)
	}

	s.notifier.Emit(ctx, events.Message{
		Type:             events.BidAccepted,
		Topic:            events.RequestTopic(res.Request.ID),
		RequestID:        res.Request.ID,
		BidID:            &res.Bid.ID,
		DeliveryPersonID: &res.Bid.DeliveryPersonID,
		Status:           domain.StatusAssigned,
		Amount:           res.Bid.Amount,
		At:               res.Request.UpdatedAt,
	})

	s.logger.Info("bid accepted",
		logx.String("event", "bid_accepted"),
		logx.UUID("bid_id", res.Bid.ID),
		logx.UUID("request_id", res.Request.ID),
		logx.UUID("delivery_person_id", res.Bid.DeliveryPersonID),
		logx.Int64("final_fare", res.Bid.Amount),
		logx.Int64("rejected", res.Rejected),
	)
	return res, nil
}

// ListBids returns the bids on a request, lowest amount first. Only the
// requester and admins may list them.
func (s *Service) ListBids(ctx context.Context, requestID, actorID uuid.UUID) ([]domain.Bid, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	actor, err := guard.Actor(ctx, s.store, actorID)
	if err != nil {
		return nil, err
	}
	r, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("request %s: %w", requestID, apperr.ErrNotFound)
	}
	if r.RequesterID != actor.ID && !actor.IsAdmin() {
		return nil, fmt.Errorf("bids of request %s: %w", requestID, apperr.ErrUnauthorized)
	}
	return s.store.ListBidsByRequest(ctx, requestID)
}
