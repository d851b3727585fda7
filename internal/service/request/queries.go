package request

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
	"campusdrop/internal/service/guard"
)

// Get returns a request visible to the actor: its requester, its delivery
// person, an admin, or any delivery person while it is still open.
func (s *Service) Get(ctx context.Context, actorID, requestID uuid.UUID) (domain.Request, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	actor, err := guard.Actor(ctx, s.store, actorID)
	if err != nil {
		return domain.Request{}, err
	}
	r, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return domain.Request{}, err
	}
	if r == nil {
		return domain.Request{}, fmt.Errorf("request %s: %w", requestID, apperr.ErrNotFound)
	}

	open := r.Status == domain.StatusPending && actor.Role == domain.RoleDeliveryPerson
	if !r.IsParticipant(actor.ID) && !actor.IsAdmin() && !open {
		return domain.Request{}, fmt.Errorf("request %s: %w", requestID, apperr.ErrUnauthorized)
	}
	return *r, nil
}

// GetActiveForRequester returns the requester's non-terminal request, or nil.
func (s *Service) GetActiveForRequester(ctx context.Context, requesterID uuid.UUID) (*domain.Request, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := guard.Role(ctx, s.store, requesterID, domain.RoleRequester); err != nil {
		return nil, err
	}
	return s.store.GetActiveRequest(ctx, requesterID)
}

// ListForRequester returns every request of the requester, newest first.
func (s *Service) ListForRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.Request, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := guard.Role(ctx, s.store, requesterID, domain.RoleRequester); err != nil {
		return nil, err
	}
	return s.store.ListRequestsByRequester(ctx, requesterID)
}

// GetBiddableForDeliveryPerson returns the caller's in-flight requests
// followed by open requests, each group newest first.
func (s *Service) GetBiddableForDeliveryPerson(ctx context.Context, deliveryPersonID uuid.UUID) ([]domain.Request, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := guard.Role(ctx, s.store, deliveryPersonID, domain.RoleDeliveryPerson); err != nil {
		return nil, err
	}
	mine, err := s.store.ListRequestsAssignedTo(ctx, deliveryPersonID, domain.InFlightStatuses...)
	if err != nil {
		return nil, err
	}
	open, err := s.store.ListOpenRequests(ctx)
	if err != nil {
		return nil, err
	}
	return append(mine, open...), nil
}

// ListAssigned returns every request assigned to the delivery person, newest first.
func (s *Service) ListAssigned(ctx context.Context, deliveryPersonID uuid.UUID) ([]domain.Request, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := guard.Role(ctx, s.store, deliveryPersonID, domain.RoleDeliveryPerson); err != nil {
		return nil, err
	}
	return s.store.ListRequestsAssignedTo(ctx, deliveryPersonID)
}

// ListAll returns every request, newest first. Admin only.
func (s *Service) ListAll(ctx context.Context, adminID uuid.UUID) ([]domain.Request, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := guard.Role(ctx, s.store, adminID, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.ListRequests(ctx)
}
