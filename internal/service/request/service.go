// Package request owns the delivery request state machine.
package request

import (
	"context"
	"fmt"
	"strings"
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

// Service - request lifecycle manager.
type Service struct {
	store            storetx.Store
	estimator        FareEstimator
	completions      completionRecorder
	notifier         dispatcher
	operationTimeout time.Duration
	logger           logx.Logger
	ops              *prometheus.CounterVec
	now              func() time.Time
}

// Deps groups the collaborators of Service.
type Deps struct {
	Store       storetx.Store
	Estimator   FareEstimator
	Completions completionRecorder
	Notifier    dispatcher
	Logger      logx.Logger
	Operations  *prometheus.CounterVec
}

// NewService creates a new Service.
func NewService(d Deps, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if d.Estimator == nil {
		d.Estimator = NewCampusEstimator(nil)
	}
	return &Service{
		store:            d.Store,
		estimator:        d.Estimator,
		completions:      d.Completions,
		notifier:         d.Notifier,
		operationTimeout: timeout,
		logger:           d.Logger,
		ops:              d.Operations,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// CreateInput is the payload of CreateRequest.
type CreateInput struct {
	RequesterID    uuid.UUID
	Pickup         string
	Dropoff        string
	PackageDetails string
	// PreferredTime defaults to now.
	PreferredTime time.Time
}

func (in CreateInput) normalize(now time.Time) (CreateInput, error) {
	in.Pickup = strings.TrimSpace(in.Pickup)
	in.Dropoff = strings.TrimSpace(in.Dropoff)
	in.PackageDetails = strings.TrimSpace(in.PackageDetails)
	if in.Pickup == "" || in.Dropoff == "" || in.PackageDetails == "" {
		return in, fmt.Errorf("pickup, dropoff and package details are required: %w", apperr.ErrInvalid)
	}
	if in.PreferredTime.IsZero() {
		in.PreferredTime = now
	}
	return in, nil
}

// CreateRequest posts a pending request and notifies every available
// delivery person. A requester holds at most one non-terminal request.
func (s *Service) CreateRequest(ctx context.Context, in CreateInput) (domain.Request, error) {
	now := s.now()
	in, err := in.normalize(now)
	if err != nil {
		return domain.Request{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		created  domain.Request
		notified int
	)
	err = s.store.WithTx(ctx, func(q storetx.Queries) error {
		if _, err := guard.Role(ctx, q, in.RequesterID, domain.RoleRequester); err != nil {
			return err
		}

		active, err := q.GetActiveRequest(ctx, in.RequesterID)
		if err != nil {
			return err
		}
		if active != nil {
			return fmt.Errorf("requester %s already has request %s in %s: %w",
				in.RequesterID, active.ID, active.Status, apperr.ErrConflict)
		}

		created = domain.Request{
			ID:                 uuid.New(),
			RequesterID:        in.RequesterID,
			Pickup:             in.Pickup,
			Dropoff:            in.Dropoff,
			PackageDetails:     in.PackageDetails,
			PreferredTime:      in.PreferredTime,
			Status:             domain.StatusPending,
			FareRecommendation: s.estimator.Fare(in.Pickup, in.Dropoff, in.PreferredTime, now),
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := q.InsertRequest(ctx, &created); err != nil {
			return err
		}

		couriers, err := q.ListAvailableDeliveryPersons(ctx)
		if err != nil {
			return err
		}
		msg := fmt.Sprintf("New delivery request from %s to %s", created.Pickup, created.Dropoff)
		ns := make([]domain.Notification, 0, len(couriers))
		for _, dp := range couriers {
			ns = append(ns, domain.Notification{
				ID:          uuid.New(),
				RecipientID: dp.ID,
				SenderID:    &created.RequesterID,
				Type:        domain.NotifNewRequest,
				RequestID:   &created.ID,
				Message:     msg,
				CreatedAt:   now,
			})
		}
		notified = len(ns)
		return s.notifier.Persist(ctx, q, ns...)
	})
	metrics.ObserveOperation(s.ops, "create_request", err)
	if err != nil {
		return domain.Request{}, guard.Tx("create request", err)
	}

	s.notifier.Emit(ctx, events.Message{
		Type:      events.NewRequest,
		Topic:     events.BroadcastTopic,
		RequestID: created.ID,
		Status:    created.Status,
		Amount:    created.FareRecommendation,
		At:        now,
	})

	s.logger.Info("request created",
		logx.String("event", "request_created"),
		logx.UUID("request_id", created.ID),
		logx.UUID("requester_id", created.RequesterID),
		logx.Int64("fare_recommendation", created.FareRecommendation),
		logx.Int("notified", notified),
	)
	return created, nil
}

// AdvanceStatus moves the request one step along the chain, or cancels it
// while pending. assigned is only reachable by accepting a bid.
func (s *Service) AdvanceStatus(ctx context.Context, requestID, actorID uuid.UUID, target domain.RequestStatus) (domain.Request, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		updated domain.Request
		from    domain.RequestStatus
	)
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
		if !target.Valid() {
			return fmt.Errorf("unknown status %q: %w", target, apperr.ErrInvalid)
		}
		if target == domain.StatusAssigned || !domain.CanTransition(r.Status, target) {
			return fmt.Errorf("%s -> %s: %w", r.Status, target, apperr.ErrInvalidTransition)
		}
		if err := authorizeAdvance(actor, r, target); err != nil {
			return err
		}

		ok, err := q.UpdateRequestStatus(ctx, r.ID, r.Status, target)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("request %s changed concurrently: %w", r.ID, apperr.ErrInvalidState)
		}

		from = r.Status
		updated = *r
		updated.Status = target
		updated.UpdatedAt = s.now()

		if target == domain.StatusDelivered {
			if _, err := s.completions.RecordCompletion(ctx, q, *r.DeliveryPersonID); err != nil {
				return err
			}
		}

		return s.notifier.Persist(ctx, q, domain.Notification{
			ID:          uuid.New(),
			RecipientID: updated.RequesterID,
			SenderID:    &actor.ID,
			Type:        domain.NotifStatusUpdate,
			RequestID:   &updated.ID,
			Message:     statusMessage(target),
			CreatedAt:   updated.UpdatedAt,
		})
	})
	metrics.ObserveOperation(s.ops, "advance_status", err)
	if err != nil {
		return domain.Request{}, guard.Tx("advance status", err)
	}

	msg := notify.RequestEvent(events.RequestStatusUpdated, &updated, updated.UpdatedAt)
	msg.DeliveryPersonID = updated.DeliveryPersonID
	s.notifier.Emit(ctx, msg)

	s.logger.Info("request status changed",
		logx.String("event", "request_status_changed"),
		logx.UUID("request_id", updated.ID),
		logx.String("from", string(from)),
		logx.String("to", string(updated.Status)),
		logx.UUID("actor_id", actorID),
	)
	return updated, nil
}

func authorizeAdvance(actor *domain.User, r *domain.Request, target domain.RequestStatus) error {
	if target == domain.StatusCanceled {
		if actor.ID == r.RequesterID || actor.IsAdmin() {
			return nil
		}
		return fmt.Errorf("only the requester or an admin cancels request %s: %w", r.ID, apperr.ErrUnauthorized)
	}
	if r.AssignedTo(actor.ID) {
		return nil
	}
	return fmt.Errorf("only the assigned delivery person advances request %s: %w", r.ID, apperr.ErrUnauthorized)
}

func statusMessage(s domain.RequestStatus) string {
	switch s {
	case domain.StatusPickedUp:
		return "Your package has been picked up"
	case domain.StatusInTransit:
		return "Your package is on the way"
	case domain.StatusDelivered:
		return "Your package has been delivered"
	case domain.StatusCanceled:
		return "Your delivery request was canceled"
	default:
		return "Your delivery request is now " + string(s)
	}
}

// ETA returns the estimated delivery time of r in minutes.
func (s *Service) ETA(r *domain.Request) int {
	return s.estimator.ETA(r.Pickup, r.Dropoff)
}
