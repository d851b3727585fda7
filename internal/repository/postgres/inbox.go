package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"campusdrop/internal/domain"
)

const notificationColumns = `id, recipient_id, sender_id, type, request_id, message, is_read, created_at`

func scanNotification(row scanner) (*domain.Notification, error) {
	var (
		n       domain.Notification
		sender  uuid.NullUUID
		request uuid.NullUUID
	)
	if err := row.Scan(&n.ID, &n.RecipientID, &sender, &n.Type, &request, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.SenderID = fromNullable(sender)
	n.RequestID = fromNullable(request)
	return &n, nil
}

// InsertNotifications writes the batch in one round trip.
func (q *queries) InsertNotifications(ctx context.Context, ns []domain.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	_, err := q.db.CopyFrom(ctx,
		pgx.Identifier{"notifications"},
		[]string{"id", "recipient_id", "sender_id", "type", "request_id", "message", "is_read", "created_at"},
		pgx.CopyFromSlice(len(ns), func(i int) ([]any, error) {
			n := ns[i]
			return []any{n.ID, n.RecipientID, nullable(n.SenderID), string(n.Type), nullable(n.RequestID), n.Message, n.IsRead, n.CreatedAt}, nil
		}),
	)
	if err != nil {
		return wrap("insert notifications", err)
	}
	return nil
}

func (q *queries) GetNotification(ctx context.Context, id uuid.UUID) (*domain.Notification, error) {
	row := q.db.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	n, err := one(row, scanNotification)
	if err != nil {
		return nil, fmt.Errorf("get notification %s: %w", id, err)
	}
	return n, nil
}

func (q *queries) ListNotifications(ctx context.Context, recipientID uuid.UUID, limit int) ([]domain.Notification, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications of %s: %w", recipientID, err)
	}
	return many(rows, scanNotification)
}

func (q *queries) MarkNotificationRead(ctx context.Context, id uuid.UUID) (bool, error) {
	ct, err := q.db.Exec(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return ct.RowsAffected() == 1, nil
}

func (q *queries) MarkAllNotificationsRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	ct, err := q.db.Exec(ctx, `UPDATE notifications SET is_read = true WHERE recipient_id = $1 AND NOT is_read`, recipientID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications of %s read: %w", recipientID, err)
	}
	return ct.RowsAffected(), nil
}

const paymentColumns = `id, request_id, amount, method, status, created_at`

func (q *queries) InsertPayment(ctx context.Context, p *domain.Payment) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.RequestID, p.Amount, string(p.Method), string(p.Status), p.CreatedAt)
	if err != nil {
		return wrap("insert payment", err)
	}
	return nil
}

func (q *queries) GetPaymentByRequest(ctx context.Context, requestID uuid.UUID) (*domain.Payment, error) {
	row := q.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE request_id = $1`, requestID)
	p, err := one(row, func(row scanner) (*domain.Payment, error) {
		var p domain.Payment
		if err := row.Scan(&p.ID, &p.RequestID, &p.Amount, &p.Method, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		return &p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("get payment of %s: %w", requestID, err)
	}
	return p, nil
}

const reviewColumns = `id, request_id, reviewer_id, reviewee_id, rating, comment, created_at`

func (q *queries) InsertReview(ctx context.Context, r *domain.Review) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO reviews (`+reviewColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID, r.RequestID, r.ReviewerID, r.RevieweeID, r.Rating, r.Comment, r.CreatedAt)
	if err != nil {
		return wrap("insert review", err)
	}
	return nil
}

func (q *queries) ListReviewsFor(ctx context.Context, revieweeID uuid.UUID) ([]domain.Review, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews
		WHERE reviewee_id = $1
		ORDER BY created_at DESC, id
	`, revieweeID)
	if err != nil {
		return nil, fmt.Errorf("list reviews of %s: %w", revieweeID, err)
	}
	return many(rows, func(row scanner) (*domain.Review, error) {
		var r domain.Review
		if err := row.Scan(&r.ID, &r.RequestID, &r.ReviewerID, &r.RevieweeID, &r.Rating, &r.Comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		return &r, nil
	})
}
