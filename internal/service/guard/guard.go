// Package guard holds the actor checks shared by the core services.
package guard

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
)

// UserGetter loads marketplace profiles.
type UserGetter interface {
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Actor loads the acting user. Unknown and blocked actors are unauthorized.
func Actor(ctx context.Context, q UserGetter, id uuid.UUID) (*domain.User, error) {
	u, err := q.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load actor: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("actor %s has no profile: %w", id, apperr.ErrUnauthorized)
	}
	if u.IsBlocked {
		return nil, fmt.Errorf("actor %s is blocked: %w", id, apperr.ErrUnauthorized)
	}
	return u, nil
}

// Role is Actor plus a role check.
func Role(ctx context.Context, q UserGetter, id uuid.UUID, role domain.Role) (*domain.User, error) {
	u, err := Actor(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if u.Role != role {
		return nil, fmt.Errorf("actor %s is %s, want %s: %w", id, u.Role, role, apperr.ErrUnauthorized)
	}
	return u, nil
}

// Tx wraps a transaction failure: domain errors pass through, anything else
// becomes apperr.ErrTx.
func Tx(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.IsDomain(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, apperr.ErrTx, err)
}
