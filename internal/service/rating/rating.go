// Package rating owns the derived per-user aggregates: average rating and
// completed delivery count. Both are recomputed from the full record set
// rather than incremented.
package rating

import (
	"context"
	"fmt"
	"math"
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

type dispatcher interface {
	Persist(ctx context.Context, q storetx.NotificationQueries, ns ...domain.Notification) error
	Emit(ctx context.Context, msgs ...events.Message)
}

// Service records reviews and maintains user aggregates.
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

// ReviewInput is the payload of RecordReview.
type ReviewInput struct {
	RequestID  uuid.UUID
	ReviewerID uuid.UUID
	Rating     int
	Comment    string
}

// RecordReview stores the requester's review of the delivery person and
// recomputes the reviewee's average.
func (s *Service) RecordReview(ctx context.Context, in ReviewInput) (domain.Review, error) {
	if in.Rating < domain.MinRating || in.Rating > domain.MaxRating {
		return domain.Review{}, fmt.Errorf("rating %d out of range: %w", in.Rating, apperr.ErrInvalid)
	}

	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	var (
		review domain.Review
		avg    float64
	)
	err := s.store.WithTx(ctx, func(q storetx.Queries) error {
		if _, err := guard.Actor(ctx, q, in.ReviewerID); err != nil {
			return err
		}
		r, err := q.GetRequest(ctx, in.RequestID)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("request %s: %w", in.RequestID, apperr.ErrNotFound)
		}
		if r.Status != domain.StatusDelivered {
			return fmt.Errorf("request %s is %s: %w", r.ID, r.Status, apperr.ErrInvalidState)
		}
		if r.RequesterID != in.ReviewerID {
			return fmt.Errorf("only the requester reviews request %s: %w", r.ID, apperr.ErrUnauthorized)
		}
		if r.DeliveryPersonID == nil {
			return fmt.Errorf("request %s has no delivery person: %w", r.ID, apperr.ErrInvalidState)
		}

		review = domain.Review{
			ID:         uuid.New(),
			RequestID:  r.ID,
			ReviewerID: in.ReviewerID,
			RevieweeID: *r.DeliveryPersonID,
			Rating:     in.Rating,
			Comment:    strings.TrimSpace(in.Comment),
			CreatedAt:  s.now(),
		}
		if err := q.InsertReview(ctx, &review); err != nil {
			return err
		}

		if avg, err = s.recomputeAverage(ctx, q, review.RevieweeID); err != nil {
			return err
		}

		return s.notifier.Persist(ctx, q, notify.New(review.RevieweeID, domain.NotifNewReview, review.RequestID,
			&review.ReviewerID, fmt.Sprintf("You received a %d-star review", review.Rating), review.CreatedAt))
	})
	metrics.ObserveOperation(s.ops, "record_review", err)
	if err != nil {
		return domain.Review{}, guard.Tx("record review", err)
	}

	s.notifier.Emit(ctx, events.Message{
		Type:             events.NewReview,
		Topic:            events.RequestTopic(review.RequestID),
		RequestID:        review.RequestID,
		DeliveryPersonID: &review.RevieweeID,
		Status:           domain.StatusDelivered,
		At:               review.CreatedAt,
	})

	s.logger.Info("review recorded",
		logx.String("event", "review_recorded"),
		logx.UUID("request_id", review.RequestID),
		logx.UUID("reviewee_id", review.RevieweeID),
		logx.Int("rating", review.Rating),
		logx.Float64("avg_rating", avg),
	)
	return review, nil
}

// recomputeAverage locks the user row so concurrent reviews of the same
// person are folded one at a time.
func (s *Service) recomputeAverage(ctx context.Context, q storetx.Queries, userID uuid.UUID) (float64, error) {
	u, err := q.LockUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if u == nil {
		return 0, fmt.Errorf("reviewee %s: %w", userID, apperr.ErrNotFound)
	}
	reviews, err := q.ListReviewsFor(ctx, userID)
	if err != nil {
		return 0, err
	}
	avg := Average(reviews)
	if err := q.UpdateUserRating(ctx, userID, avg); err != nil {
		return 0, err
	}
	return avg, nil
}

// RecordCompletion recounts the delivered requests of the delivery person.
// It runs inside the caller's transaction, after the request has entered
// delivered, so calling it again for the same request changes nothing.
func (s *Service) RecordCompletion(ctx context.Context, q storetx.Queries, deliveryPersonID uuid.UUID) (int, error) {
	if _, err := q.LockUser(ctx, deliveryPersonID); err != nil {
		return 0, err
	}
	n, err := q.CountDelivered(ctx, deliveryPersonID)
	if err != nil {
		return 0, err
	}
	if err := q.UpdateUserCompleted(ctx, deliveryPersonID, n); err != nil {
		return 0, err
	}
	return n, nil
}

// ListFor returns reviews received by userID, newest first.
func (s *Service) ListFor(ctx context.Context, userID uuid.UUID) ([]domain.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", userID, apperr.ErrNotFound)
	}
	return s.store.ListReviewsFor(ctx, userID)
}

// Average is the arithmetic mean of every rating, rounded to one decimal.
// It is 0 for no reviews.
func Average(reviews []domain.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return math.Round(float64(sum)/float64(len(reviews))*10) / 10
}
