package ws

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
	"campusdrop/internal/ports/events"
	"campusdrop/internal/service/guard"
)

// Directory is the read side the topic check needs.
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetRequest(ctx context.Context, id uuid.UUID) (*domain.Request, error)
	HasBid(ctx context.Context, requestID, deliveryPersonID uuid.UUID) (bool, error)
}

const requestPrefix = "request:"

// Authorize reports whether actorID may subscribe to topic. A request topic
// is open to its requester, its assigned delivery person, anyone who bid on
// it and admins; broadcast is open to delivery persons and admins.
func Authorize(ctx context.Context, dir Directory, actorID uuid.UUID, topic string) error {
	actor, err := guard.Actor(ctx, dir, actorID)
	if err != nil {
		return err
	}

	if topic == events.BroadcastTopic {
		if actor.Role == domain.RoleDeliveryPerson || actor.IsAdmin() {
			return nil
		}
		return fmt.Errorf("broadcast: %w", apperr.ErrUnauthorized)
	}

	raw, ok := strings.CutPrefix(topic, requestPrefix)
	if !ok {
		return fmt.Errorf("unknown topic %q: %w", topic, apperr.ErrInvalid)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("topic %q: %w", topic, apperr.ErrInvalid)
	}
	r, err := dir.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("request %s: %w", id, apperr.ErrNotFound)
	}
	if actor.IsAdmin() || r.IsParticipant(actor.ID) {
		return nil
	}
	if actor.Role == domain.RoleDeliveryPerson {
		bid, err := dir.HasBid(ctx, r.ID, actor.ID)
		if err != nil {
			return err
		}
		if bid {
			return nil
		}
	}
	return fmt.Errorf("topic %s: %w", topic, apperr.ErrUnauthorized)
}
