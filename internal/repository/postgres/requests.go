package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"campusdrop/internal/domain"
)

const requestColumns = `id, requester_id, delivery_person_id, selected_bid_id, pickup, dropoff, package_details,
	preferred_time, status, fare_recommendation, final_fare, created_at, updated_at`

func scanRequest(row scanner) (*domain.Request, error) {
	var (
		r              domain.Request
		deliveryPerson uuid.NullUUID
		selectedBid    uuid.NullUUID
	)
	if err := row.Scan(&r.ID, &r.RequesterID, &deliveryPerson, &selectedBid, &r.Pickup, &r.Dropoff,
		&r.PackageDetails, &r.PreferredTime, &r.Status, &r.FareRecommendation, &r.FinalFare,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.DeliveryPersonID = fromNullable(deliveryPerson)
	r.SelectedBidID = fromNullable(selectedBid)
	return &r, nil
}

func statusStrings(statuses []domain.RequestStatus) []string {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// InsertRequest relies on requests_one_active_per_requester for the
// one-active-request rule.
func (q *queries) InsertRequest(ctx context.Context, r *domain.Request) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, r.ID, r.RequesterID, nullable(r.DeliveryPersonID), nullable(r.SelectedBidID), r.Pickup, r.Dropoff,
		r.PackageDetails, r.PreferredTime, string(r.Status), r.FareRecommendation, r.FinalFare,
		r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return wrap("insert request", err)
	}
	return nil
}

func (q *queries) GetRequest(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	row := q.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1`, id)
	r, err := one(row, scanRequest)
	if err != nil {
		return nil, fmt.Errorf("get request %s: %w", id, err)
	}
	return r, nil
}

func (q *queries) GetRequestForShare(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	row := q.db.QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1 FOR SHARE`, id)
	r, err := one(row, scanRequest)
	if err != nil {
		return nil, fmt.Errorf("get request %s for share: %w", id, err)
	}
	return r, nil
}

func (q *queries) GetActiveRequest(ctx context.Context, requesterID uuid.UUID) (*domain.Request, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM requests
		WHERE requester_id = $1 AND status NOT IN ('delivered', 'canceled')
		LIMIT 1
	`, requesterID)
	r, err := one(row, scanRequest)
	if err != nil {
		return nil, fmt.Errorf("get active request of %s: %w", requesterID, err)
	}
	return r, nil
}

func (q *queries) ListRequestsByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.Request, error) {
	return q.listRequests(ctx, "list requests by requester", `WHERE requester_id = $1`, requesterID)
}

func (q *queries) ListRequestsAssignedTo(ctx context.Context, deliveryPersonID uuid.UUID, statuses ...domain.RequestStatus) ([]domain.Request, error) {
	return q.listRequests(ctx, "list assigned requests",
		`WHERE delivery_person_id = $1 AND ($2::text[] IS NULL OR status = ANY($2::text[]))`,
		deliveryPersonID, statusStrings(statuses))
}

func (q *queries) ListOpenRequests(ctx context.Context) ([]domain.Request, error) {
	return q.listRequests(ctx, "list open requests", `WHERE status = 'pending' AND selected_bid_id IS NULL`)
}

func (q *queries) ListRequests(ctx context.Context) ([]domain.Request, error) {
	return q.listRequests(ctx, "list requests", ``)
}

func (q *queries) listRequests(ctx context.Context, op, where string, args ...any) ([]domain.Request, error) {
	rows, err := q.db.Query(ctx, `SELECT `+requestColumns+` FROM requests `+where+` ORDER BY created_at DESC, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out, err := many(rows, scanRequest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (q *queries) UpdateRequestStatus(ctx context.Context, id uuid.UUID, from, to domain.RequestStatus) (bool, error) {
	ct, err := q.db.Exec(ctx, `
		UPDATE requests
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("update request %s status: %w", id, err)
	}
	return ct.RowsAffected() == 1, nil
}

func (q *queries) AssignRequest(ctx context.Context, id, deliveryPersonID, bidID uuid.UUID, fare int64) (bool, error) {
	ct, err := q.db.Exec(ctx, `
		UPDATE requests
		SET status = 'assigned', delivery_person_id = $2, selected_bid_id = $3, final_fare = $4, updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, deliveryPersonID, bidID, fare)
	if err != nil {
		return false, wrap(fmt.Sprintf("assign request %s", id), err)
	}
	return ct.RowsAffected() == 1, nil
}

func (q *queries) CountDelivered(ctx context.Context, deliveryPersonID uuid.UUID) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM requests WHERE delivery_person_id = $1 AND status = 'delivered'
	`, deliveryPersonID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count delivered of %s: %w", deliveryPersonID, err)
	}
	return n, nil
}

func (q *queries) CountRequestsByStatus(ctx context.Context) (map[domain.RequestStatus]int, error) {
	rows, err := q.db.Query(ctx, `SELECT status, COUNT(*) FROM requests GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count requests: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.RequestStatus]int)
	for rows.Next() {
		var (
			status domain.RequestStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan request count: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}
