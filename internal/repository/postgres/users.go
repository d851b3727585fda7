package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
)

const userColumns = `id, full_name, role, is_delivery_person_active, is_blocked, avg_rating, total_deliveries_completed, created_at`

func scanUser(row scanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.FullName, &u.Role, &u.IsDeliveryPersonActive, &u.IsBlocked,
		&u.AvgRating, &u.TotalDeliveriesCompleted, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (q *queries) InsertUser(ctx context.Context, u *domain.User) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.FullName, string(u.Role), u.IsDeliveryPersonActive, u.IsBlocked,
		u.AvgRating, u.TotalDeliveriesCompleted, u.CreatedAt)
	if err != nil {
		return wrap("insert user", err)
	}
	return nil
}

func (q *queries) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := one(row, scanUser)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

func (q *queries) LockUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := q.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	u, err := one(row, scanUser)
	if err != nil {
		return nil, fmt.Errorf("lock user %s: %w", id, err)
	}
	return u, nil
}

func (q *queries) ListAvailableDeliveryPersons(ctx context.Context) ([]domain.User, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE role = 'deliveryPerson' AND is_delivery_person_active AND NOT is_blocked
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list delivery persons: %w", err)
	}
	return many(rows, scanUser)
}

func (q *queries) SetUserAvailability(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	ct, err := q.db.Exec(ctx, `UPDATE users SET is_delivery_person_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return false, fmt.Errorf("set availability of user %s: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

func (q *queries) SetUserBlocked(ctx context.Context, id uuid.UUID, blocked bool) (bool, error) {
	ct, err := q.db.Exec(ctx, `UPDATE users SET is_blocked = $2 WHERE id = $1`, id, blocked)
	if err != nil {
		return false, fmt.Errorf("set blocked of user %s: %w", id, err)
	}
	return ct.RowsAffected() > 0, nil
}

func (q *queries) UpdateUserRating(ctx context.Context, id uuid.UUID, avg float64) error {
	ct, err := q.db.Exec(ctx, `UPDATE users SET avg_rating = $2 WHERE id = $1`, id, avg)
	if err != nil {
		return fmt.Errorf("update rating of user %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("update rating of user %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (q *queries) UpdateUserCompleted(ctx context.Context, id uuid.UUID, completed int) error {
	ct, err := q.db.Exec(ctx, `UPDATE users SET total_deliveries_completed = $2 WHERE id = $1`, id, completed)
	if err != nil {
		return fmt.Errorf("update completed count of user %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("update completed count of user %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (q *queries) CountUsersByRole(ctx context.Context) (map[domain.Role]int, error) {
	rows, err := q.db.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.Role]int)
	for rows.Next() {
		var (
			role domain.Role
			n    int
		)
		if err := rows.Scan(&role, &n); err != nil {
			return nil, fmt.Errorf("scan user count: %w", err)
		}
		out[role] = n
	}
	return out, rows.Err()
}

func (q *queries) TopDeliveryPersons(ctx context.Context, limit int) ([]domain.DeliveryPersonSummary, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, full_name, total_deliveries_completed, avg_rating
		FROM users
		WHERE role = 'deliveryPerson'
		ORDER BY total_deliveries_completed DESC, avg_rating DESC, full_name
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("top delivery persons: %w", err)
	}
	return many(rows, func(row scanner) (*domain.DeliveryPersonSummary, error) {
		var s domain.DeliveryPersonSummary
		if err := row.Scan(&s.ID, &s.FullName, &s.TotalDeliveriesCompleted, &s.AvgRating); err != nil {
			return nil, err
		}
		return &s, nil
	})
}
