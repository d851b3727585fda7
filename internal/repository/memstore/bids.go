package memstore

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
)

func (q *queries) InsertBid(ctx context.Context, b *domain.Bid) error {
	return q.update(ctx, func(st *state) error {
		if _, ok := st.requests[b.RequestID]; !ok {
			return fmt.Errorf("insert bid: request %s: %w", b.RequestID, apperr.ErrNotFound)
		}
		for _, other := range st.bids {
			if other.ID == b.ID || (other.RequestID == b.RequestID && other.DeliveryPersonID == b.DeliveryPersonID) {
				return fmt.Errorf("insert bid on request %s: %w", b.RequestID, apperr.ErrConflict)
			}
		}
		st.bids[b.ID] = *b
		return nil
	})
}

func (q *queries) GetBid(ctx context.Context, id uuid.UUID) (*domain.Bid, error) {
	var out *domain.Bid
	err := q.view(ctx, func(st *state) {
		if b, ok := st.bids[id]; ok {
			out = &b
		}
	})
	return out, err
}

func (q *queries) ListBidsByRequest(ctx context.Context, requestID uuid.UUID) ([]domain.Bid, error) {
	var out []domain.Bid
	err := q.view(ctx, func(st *state) {
		for _, b := range st.bids {
			if b.RequestID == requestID {
				out = append(out, b)
			}
		}
	})
	slices.SortFunc(out, func(a, b domain.Bid) int {
		if c := cmp.Compare(a.Amount, b.Amount); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out, err
}

func (q *queries) HasBid(ctx context.Context, requestID, deliveryPersonID uuid.UUID) (bool, error) {
	found := false
	err := q.view(ctx, func(st *state) {
		for _, b := range st.bids {
			if b.RequestID == requestID && b.DeliveryPersonID == deliveryPersonID {
				found = true
				return
			}
		}
	})
	return found, err
}

func (q *queries) AcceptBid(ctx context.Context, id uuid.UUID) (bool, error) {
	applied := false
	err := q.update(ctx, func(st *state) error {
		b, ok := st.bids[id]
		if !ok || b.Status != domain.BidPending {
			return nil
		}
		b.Status = domain.BidAccepted
		st.bids[id] = b
		applied = true
		return nil
	})
	return applied, err
}

func (q *queries) RejectSiblingBids(ctx context.Context, requestID, acceptedBidID uuid.UUID) (int64, error) {
	var n int64
	err := q.update(ctx, func(st *state) error {
		for id, b := range st.bids {
			if b.RequestID != requestID || id == acceptedBidID || b.Status == domain.BidRejected {
				continue
			}
			b.Status = domain.BidRejected
			st.bids[id] = b
			n++
		}
		return nil
	})
	return n, err
}
