package memstore

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
)

func (q *queries) InsertRequest(ctx context.Context, r *domain.Request) error {
	return q.update(ctx, func(st *state) error {
		if _, ok := st.requests[r.ID]; ok {
			return fmt.Errorf("insert request %s: %w", r.ID, apperr.ErrConflict)
		}
		if !r.Status.Terminal() {
			for _, other := range st.requests {
				if other.RequesterID == r.RequesterID && !other.Status.Terminal() {
					return fmt.Errorf("insert request for requester %s: %w", r.RequesterID, apperr.ErrConflict)
				}
			}
		}
		st.requests[r.ID] = *r
		return nil
	})
}

func (q *queries) GetRequest(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	var out *domain.Request
	err := q.view(ctx, func(st *state) {
		if r, ok := st.requests[id]; ok {
			out = &r
		}
	})
	return out, err
}

func (q *queries) GetRequestForShare(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	return q.GetRequest(ctx, id)
}

func (q *queries) GetActiveRequest(ctx context.Context, requesterID uuid.UUID) (*domain.Request, error) {
	var out *domain.Request
	err := q.view(ctx, func(st *state) {
		for _, r := range st.requests {
			if r.RequesterID == requesterID && !r.Status.Terminal() {
				out = &r
				return
			}
		}
	})
	return out, err
}

func (q *queries) ListRequestsByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.Request, error) {
	return q.listRequests(ctx, func(r *domain.Request) bool { return r.RequesterID == requesterID })
}

func (q *queries) ListRequestsAssignedTo(ctx context.Context, deliveryPersonID uuid.UUID, statuses ...domain.RequestStatus) ([]domain.Request, error) {
	return q.listRequests(ctx, func(r *domain.Request) bool {
		if !r.AssignedTo(deliveryPersonID) {
			return false
		}
		return len(statuses) == 0 || slices.Contains(statuses, r.Status)
	})
}

func (q *queries) ListOpenRequests(ctx context.Context) ([]domain.Request, error) {
	return q.listRequests(ctx, func(r *domain.Request) bool {
		return r.Status == domain.StatusPending && r.SelectedBidID == nil
	})
}

func (q *queries) ListRequests(ctx context.Context) ([]domain.Request, error) {
	return q.listRequests(ctx, func(*domain.Request) bool { return true })
}

func (q *queries) listRequests(ctx context.Context, keep func(r *domain.Request) bool) ([]domain.Request, error) {
	var out []domain.Request
	err := q.view(ctx, func(st *state) {
		for _, r := range st.requests {
			if keep(&r) {
				out = append(out, r)
			}
		}
	})
	slices.SortFunc(out, func(a, b domain.Request) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out, err
}

func (q *queries) UpdateRequestStatus(ctx context.Context, id uuid.UUID, from, to domain.RequestStatus) (bool, error) {
	applied := false
	err := q.update(ctx, func(st *state) error {
		r, ok := st.requests[id]
		if !ok || r.Status != from {
			return nil
		}
		r.Status = to
		r.UpdatedAt = q.store.now()
		st.requests[id] = r
		applied = true
		return nil
	})
	return applied, err
}

func (q *queries) AssignRequest(ctx context.Context, id, deliveryPersonID, bidID uuid.UUID, fare int64) (bool, error) {
	applied := false
	err := q.update(ctx, func(st *state) error {
		r, ok := st.requests[id]
		if !ok || r.Status != domain.StatusPending {
			return nil
		}
		r.Status = domain.StatusAssigned
		r.DeliveryPersonID = ptr(deliveryPersonID)
		r.SelectedBidID = ptr(bidID)
		r.FinalFare = ptr(fare)
		r.UpdatedAt = q.store.now()
		st.requests[id] = r
		applied = true
		return nil
	})
	return applied, err
}

func (q *queries) CountDelivered(ctx context.Context, deliveryPersonID uuid.UUID) (int, error) {
	n := 0
	err := q.view(ctx, func(st *state) {
		for _, r := range st.requests {
			if r.Status == domain.StatusDelivered && r.AssignedTo(deliveryPersonID) {
				n++
			}
		}
	})
	return n, err
}

func (q *queries) CountRequestsByStatus(ctx context.Context) (map[domain.RequestStatus]int, error) {
	out := make(map[domain.RequestStatus]int)
	err := q.view(ctx, func(st *state) {
		for _, r := range st.requests {
			out[r.Status]++
		}
	})
	return out, err
}
