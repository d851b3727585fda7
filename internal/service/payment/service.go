// Package payment records cash settlement of delivered requests.
package payment

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

type dispatcher interface {
	Persist(ctx context.Context, q storetx.NotificationQueries, ns ...domain.Notification) error
	Emit(ctx context.Context, msgs ...events.Message)
}

// Service - payment manager.
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

// ConfirmPayment records that the assigned delivery person collected amount
// in cash. A request is paid at most once.
func (s *Service) ConfirmPayment(ctx context.Context, requestID, actorID uuid.UUID, amount int64) (domain.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	var p domain.Payment
	err := s.store.WithTx(ctx, func(q storetx.Queries) error {
		actor, err := guard.Actor(ctx, q, actorID)
		if err != nil {
			return err
		}
		r, err := q.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("request %s: %w", requestID, apperr.ErrNotFound)
		}
		if !r.AssignedTo(actor.ID) {
			return fmt.Errorf("only the assigned delivery person confirms payment of %s: %w", r.ID, apperr.ErrUnauthorized)
		}
		if r.Status != domain.StatusDelivered {
			return fmt.Errorf("request %s is %s: %w", r.ID, r.Status, apperr.ErrInvalidState)
		}
		if amount <= 0 {
			return fmt.Errorf("payment amount %d: %w", amount, apperr.ErrInvalid)
		}

		p = domain.Payment{
			ID:        uuid.New(),
			RequestID: r.ID,
			Amount:    amount,
			Method:    domain.PaymentCash,
			Status:    domain.PaymentCompleted,
			CreatedAt: s.now(),
		}
		if err := q.InsertPayment(ctx, &p); err != nil {
			return err
		}
		return s.notifier.Persist(ctx, q, notify.New(r.RequesterID, domain.NotifPaymentCompleted, r.ID, &actor.ID,
			fmt.Sprintf("Payment of %d received for your delivery", amount), p.CreatedAt))
	})
	metrics.ObserveOperation(s.ops, "confirm_payment", err)
	if err != nil {
		return domain.Payment{}, guard.Tx("confirm payment", err)
	}

	s.notifier.Emit(ctx, events.Message{
		Type:             events.PaymentCompleted,
		Topic:            events.RequestTopic(p.RequestID),
		RequestID:        p.RequestID,
		DeliveryPersonID: &actorID,
		Status:           domain.StatusDelivered,
		Amount:           p.Amount,
		At:               p.CreatedAt,
	})

	s.logger.Info("payment confirmed",
		logx.String("event", "payment_confirmed"),
		logx.UUID("payment_id", p.ID),
		logx.UUID("request_id", p.RequestID),
		logx.Int64("amount", p.Amount),
	)
	return p, nil
}

// GetPayment returns the payment of a request to its requester, its
// delivery person or an admin.
func (s *Service) GetPayment(ctx context.Context, requestID, actorID uuid.UUID) (domain.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	actor, err := guard.Actor(ctx, s.store, actorID)
	if err != nil {
		return domain.Payment{}, err
	}
	r, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return domain.Payment{}, err
	}
	if r == nil {
		return domain.Payment{}, fmt.Errorf("request %s: %w", requestID, apperr.ErrNotFound)
	}
	if !r.IsParticipant(actor.ID) && !actor.IsAdmin() {
		return domain.Payment{}, fmt.Errorf("payment of %s: %w", requestID, apperr.ErrUnauthorized)
	}
	p, err := s.store.GetPaymentByRequest(ctx, requestID)
	if err != nil {
		return domain.Payment{}, err
	}
	if p == nil {
		return domain.Payment{}, fmt.Errorf("payment of %s: %w", requestID, apperr.ErrNotFound)
	}
	return *p, nil
}
