package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
)

func (q *queries) InsertUser(ctx context.Context, u *domain.User) error {
	return q.update(ctx, func(st *state) error {
		if _, ok := st.users[u.ID]; ok {
			return fmt.Errorf("insert user %s: %w", u.ID, apperr.ErrConflict)
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (q *queries) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var out *domain.User
	err := q.view(ctx, func(st *state) {
		if u, ok := st.users[id]; ok {
			out = &u
		}
	})
	return out, err
}

// LockUser is GetUser: a transaction already excludes every other writer.
func (q *queries) LockUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return q.GetUser(ctx, id)
}

func (q *queries) ListAvailableDeliveryPersons(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := q.view(ctx, func(st *state) {
		for _, u := range st.users {
			if u.Role == domain.RoleDeliveryPerson && u.IsDeliveryPersonActive && !u.IsBlocked {
				out = append(out, u)
			}
		}
	})
	slices.SortFunc(out, func(a, b domain.User) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, err
}

func (q *queries) SetUserAvailability(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	return q.setUser(ctx, id, func(u *domain.User) { u.IsDeliveryPersonActive = active })
}

func (q *queries) SetUserBlocked(ctx context.Context, id uuid.UUID, blocked bool) (bool, error) {
	return q.setUser(ctx, id, func(u *domain.User) { u.IsBlocked = blocked })
}

func (q *queries) UpdateUserRating(ctx context.Context, id uuid.UUID, avg float64) error {
	ok, err := q.setUser(ctx, id, func(u *domain.User) { u.AvgRating = avg })
	if err == nil && !ok {
		return fmt.Errorf("update rating of user %s: %w", id, apperr.ErrNotFound)
	}
	return err
}

func (q *queries) UpdateUserCompleted(ctx context.Context, id uuid.UUID, completed int) error {
	ok, err := q.setUser(ctx, id, func(u *domain.User) { u.TotalDeliveriesCompleted = completed })
	if err == nil && !ok {
		return fmt.Errorf("update completed count of user %s: %w", id, apperr.ErrNotFound)
	}
	return err
}

func (q *queries) setUser(ctx context.Context, id uuid.UUID, mut func(u *domain.User)) (bool, error) {
	applied := false
	err := q.update(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return nil
		}
		mut(&u)
		st.users[id] = u
		applied = true
		return nil
	})
	return applied, err
}

func (q *queries) CountUsersByRole(ctx context.Context) (map[domain.Role]int, error) {
	out := make(map[domain.Role]int)
	err := q.view(ctx, func(st *state) {
		for _, u := range st.users {
			out[u.Role]++
		}
	})
	return out, err
}

func (q *queries) TopDeliveryPersons(ctx context.Context, limit int) ([]domain.DeliveryPersonSummary, error) {
	var out []domain.DeliveryPersonSummary
	err := q.view(ctx, func(st *state) {
		for _, u := range st.users {
			if u.Role != domain.RoleDeliveryPerson {
				continue
			}
			out = append(out, domain.DeliveryPersonSummary{
				ID:                       u.ID,
				FullName:                 u.FullName,
				TotalDeliveriesCompleted: u.TotalDeliveriesCompleted,
				AvgRating:                u.AvgRating,
			})
		}
	})
	slices.SortFunc(out, func(a, b domain.DeliveryPersonSummary) int {
		if c := cmp.Compare(b.TotalDeliveriesCompleted, a.TotalDeliveriesCompleted); c != 0 {
			return c
		}
		if c := cmp.Compare(b.AvgRating, a.AvgRating); c != 0 {
			return c
		}
		return cmp.Compare(a.FullName, b.FullName)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}
