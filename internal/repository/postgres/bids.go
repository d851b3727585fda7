package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"campusdrop/internal/domain"
)

const bidColumns = `id, request_id, delivery_person_id, amount, status, created_at`

func scanBid(row scanner) (*domain.Bid, error) {
	var b domain.Bid
	if err := row.Scan(&b.ID, &b.RequestID, &b.DeliveryPersonID, &b.Amount, &b.Status, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (q *queries) InsertBid(ctx context.Context, b *domain.Bid) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO bids (`+bidColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, b.ID, b.RequestID, b.DeliveryPersonID, b.Amount, string(b.Status), b.CreatedAt)
	if err != nil {
		return wrap("insert bid", err)
	}
	return nil
}

func (q *queries) GetBid(ctx context.Context, id uuid.UUID) (*domain.Bid, error) {
	row := q.db.QueryRow(ctx, `SELECT `+bidColumns+` FROM bids WHERE id = $1`, id)
	b, err := one(row, scanBid)
	if err != nil {
		return nil, fmt.Errorf("get bid %s: %w", id, err)
	}
	return b, nil
}

func (q *queries) ListBidsByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.Bid, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+bidColumns+`
		FROM bids
		WHERE request_id = $1
		ORDER BY amount ASC, created_at ASC, id
	`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list bids of %s: %w", requestID, err)
	}
	return many(rows, scanBid)
}

func (q *queries) HasBid(ctx context.Context, requestID, deliveryPersonID uuid.UUID) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM bids WHERE request_id = $1 AND delivery_person_id = $2)
	`, requestID, deliveryPersonID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has bid: %w", err)
	}
	return exists, nil
}

func (q *queries) AcceptBid(ctx context.Context, id uuid.UUID) (bool, error) {
	ct, err := q.db.Exec(ctx, `UPDATE bids SET status = 'accepted' WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return false, wrap(fmt.Sprintf("accept bid %s", id), err)
	}
	return ct.RowsAffected() == 1, nil
}

func (q *queries) RejectSiblingBids(ctx context.Context, requestID, acceptedBidID uuid.UUID) (int64, error) {
	ct, err := q.db.Exec(ctx, `
		UPDATE bids SET status = 'rejected'
		WHERE request_id = $1 AND id <> $2 AND status <> 'rejected'
	`, requestID, acceptedBidID)
	if err != nil {
		return 0, fmt.Errorf("reject sibling bids of %s: %w", requestID, err)
	}
	return ct.RowsAffected(), nil
}
