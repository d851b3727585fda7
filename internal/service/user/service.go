// Package user manages marketplace profiles. Identity is issued elsewhere;
// a profile binds an identity id to a role.
package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
	"campusdrop/internal/logx"
	"campusdrop/internal/ports/storetx"
	"campusdrop/internal/service/guard"
)

// TopLimit is the leaderboard size of Stats.
const TopLimit = 5

// Service - profile manager.
type Service struct {
	store            storetx.Store
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
}

// NewService creates a new Service.
func NewService(store storetx.Store, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Service{
		store:            store,
		operationTimeout: timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput is the payload of Create. A zero ID is generated.
type CreateInput struct {
	ID       uuid.UUID
	FullName string
	Role     domain.Role
	// Active is the initial availability of a delivery person.
	Active bool
}

// Create provisions a profile. Only admins may call it.
func (s *Service) Create(ctx context.Context, adminID uuid.UUID, in CreateInput) (domain.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return domain.User{}, fmt.Errorf("full name is required: %w", apperr.ErrInvalid)
	}
	if !in.Role.Valid() {
		return domain.User{}, fmt.Errorf("role %q: %w", in.Role, apperr.ErrInvalid)
	}

	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	if _, err := guard.Role(ctx, s.store, adminID, domain.RoleAdmin); err != nil {
		return domain.User{}, err
	}
	return s.insert(ctx, in)
}

// EnsureAdmin provisions id as an admin unless it already is one.
func (s *Service) EnsureAdmin(ctx context.Context, id uuid.UUID, fullName string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if u != nil {
		if !u.IsAdmin() {
			return domain.User{}, fmt.Errorf("user %s is %s: %w", id, u.Role, apperr.ErrConflict)
		}
		return *u, nil
	}
	return s.insert(ctx, CreateInput{ID: id, FullName: fullName, Role: domain.RoleAdmin})
}

func (s *Service) insert(ctx context.Context, in CreateInput) (domain.User, error) {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	u := domain.User{
		ID:                     in.ID,
		FullName:               in.FullName,
		Role:                   in.Role,
		IsDeliveryPersonActive: in.Role == domain.RoleDeliveryPerson && in.Active,
		CreatedAt:              s.now(),
	}
	if err := s.store.InsertUser(ctx, &u); err != nil {
		return domain.User{}, err
	}
	s.logger.Info("user provisioned",
		logx.String("event", "user_created"),
		logx.UUID("user_id", u.ID),
		logx.String("role", string(u.Role)),
	)
	return u, nil
}

// Get returns the profile.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if u == nil {
		return domain.User{}, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return *u, nil
}

// SetAvailability toggles whether the delivery person receives new requests.
func (s *Service) SetAvailability(ctx context.Context, actorID uuid.UUID, active bool) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	u, err := guard.Role(ctx, s.store, actorID, domain.RoleDeliveryPerson)
	if err != nil {
		return domain.User{}, err
	}
	if _, err := s.store.SetUserAvailability(ctx, u.ID, active); err != nil {
		return domain.User{}, err
	}
	u.IsDeliveryPersonActive = active
	s.logger.Info("availability changed", logx.UUID("user_id", u.ID), logx.Bool("active", active))
	return *u, nil
}

// SetBlocked blocks or unblocks a user. Admins cannot block themselves.
func (s *Service) SetBlocked(ctx context.Context, adminID, userID uuid.UUID, blocked bool) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	if _, err := guard.Role(ctx, s.store, adminID, domain.RoleAdmin); err != nil {
		return domain.User{}, err
	}
	if adminID == userID {
		return domain.User{}, fmt.Errorf("admin %s cannot block itself: %w", adminID, apperr.ErrInvalid)
	}
	ok, err := s.store.SetUserBlocked(ctx, userID, blocked)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, fmt.Errorf("user %s: %w", userID, apperr.ErrNotFound)
	}
	s.logger.Info("user block changed",
		logx.UUID("user_id", userID),
		logx.UUID("admin_id", adminID),
		logx.Bool("blocked", blocked),
	)
	return s.Get(ctx, userID)
}

// Stats summarizes users and requests for the admin dashboard.
func (s *Service) Stats(ctx context.Context, adminID uuid.UUID) (domain.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	if _, err := guard.Role(ctx, s.store, adminID, domain.RoleAdmin); err != nil {
		return domain.Stats{}, err
	}

	roles, err := s.store.CountUsersByRole(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count users: %w", err)
	}
	statuses, err := s.store.CountRequestsByStatus(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count requests: %w", err)
	}
	top, err := s.store.TopDeliveryPersons(ctx, TopLimit)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("top delivery persons: %w", err)
	}

	var st domain.Stats
	for role, n := range roles {
		st.Users.Total += n
		switch role {
		case domain.RoleRequester:
			st.Users.Requesters = n
		case domain.RoleDeliveryPerson:
			st.Users.DeliveryPersons = n
		}
	}
	for status, n := range statuses {
		st.Requests.Total += n
		switch {
		case status == domain.StatusPending:
			st.Requests.Pending = n
		case status == domain.StatusDelivered:
			st.Requests.Delivered = n
		case status == domain.StatusCanceled:
			st.Requests.Canceled = n
		case status.Active():
			st.Requests.Active += n
		}
	}
	st.TopDeliveryPersons = top
	return st, nil
}
