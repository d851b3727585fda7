package memstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
)

func (q *queries) InsertNotifications(ctx context.Context, ns []domain.Notification) error {
	return q.update(ctx, func(st *state) error {
		for _, n := range ns {
			if _, ok := st.notifications[n.ID]; ok {
				return fmt.Errorf("insert notification %s: %w", n.ID, apperr.ErrConflict)
			}
		}
		for _, n := range ns {
			st.notifications[n.ID] = n
		}
		return nil
	})
}

func (q *queries) GetNotification(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	var out *domain.Notification
	err := q.view(ctx, func(st *state) {
		if n, ok := st.notifications[id]; ok {
			out = &n
		}
	})
	return out, err
}

func (q *queries) ListNotifications(ctx context.Context, recipientID uuid.UUID, limit int) ([]domain.Notification, error) {
	var out []domain.Notification
	err := q.view(ctx, func(st *state) {
		for _, n := range st.notifications {
			if n.RecipientID == recipientID {
				out = append(out, n)
			}
		}
	})
	slices.SortFunc(out, func(a, b domain.Notification) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (q *queries) MarkNotificationRead(ctx context.Context, id uuid.UUID) (bool, error) {
	applied := false
	err := q.update(ctx, func(st *state) error {
		n, ok := st.notifications[id]
		if !ok {
			return nil
		}
		n.IsRead = true
		st.notifications[id] = n
		applied = true
		return nil
	})
	return applied, err
}

func (q *queries) MarkAllNotificationsRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := q.update(ctx, func(st *state) error {
		for id, n := range st.notifications {
			if n.RecipientID != recipientID || n.IsRead {
				continue
			}
			n.IsRead = true
			st.notifications[id] = n
			count++
		}
		return nil
	})
	return count, err
}

func (q *queries) InsertPayment(ctx context.Context, p *domain.Payment) error {
	return q.update(ctx, func(st *state) error {
		if _, ok := st.payments[p.RequestID]; ok {
			return fmt.Errorf("insert payment for request %s: %w", p.RequestID, apperr.ErrConflict)
		}
		st.payments[p.RequestID] = *p
		return nil
	})
}

func (q *queries) GetPaymentByRequest(ctx context.Context, requestID uuid.UUID) (*domain.Payment, error) {
	var out *domain.Payment
	err := q.view(ctx, func(st *state) {
		if p, ok := st.payments[requestID]; ok {
			out = &p
		}
	})
	return out, err
}

func (q *queries) InsertReview(ctx context.Context, r *domain.Review) error {
	return q.update(ctx, func(st *state) error {
		for _, other := range st.reviews {
			if other.ID == r.ID || (other.RequestID == r.RequestID && other.ReviewerID == r.ReviewerID) {
				return fmt.Errorf("insert review for request %s: %w", r.RequestID, apperr.ErrConflict)
			}
		}
		st.reviews[r.ID] = *r
		return nil
	})
}

func (q *queries) ListReviewsFor(ctx context.Context, revieweeID uuid.UUID) ([]domain.Review, error) {
	var out []domain.Review
	err := q.view(ctx, func(st *state) {
		for _, r := range st.reviews {
			if r.RevieweeID == revieweeID {
				out = append(out, r)
			}
		}
	})
	slices.SortFunc(out, func(a, b domain.Review) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out, err
}
