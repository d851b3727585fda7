package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"campusdrop/internal/domain"
)

// UserInserter stores profiles.
type UserInserter interface {
	InsertUser(ctx context.Context, u *domain.User) error
}

// SeedUser stores an unblocked user with role. Delivery persons start active.
func SeedUser(t testing.TB, q UserInserter, role domain.Role, mutate ...func(*domain.User)) domain.User {
	t.Helper()
	u := domain.User{
		ID:                     uuid.New(),
		FullName:               string(role) + " " + uuid.NewString()[:8],
		Role:                   role,
		IsDeliveryPersonActive: role == domain.RoleDeliveryPerson,
		CreatedAt:              time.Now().UTC(),
	}
	for _, m := range mutate {
		m(&u)
	}
	require.NoError(t, q.InsertUser(context.Background(), &u))
	return u
}

// Blocked marks a seeded user blocked.
func Blocked(u *domain.User) { u.IsBlocked = true }

// Inactive marks a seeded delivery person unavailable.
func Inactive(u *domain.User) { u.IsDeliveryPersonActive = false }

// RequestWriter stores and moves requests.
type RequestWriter interface {
	InsertRequest(ctx context.Context, r *domain.Request) error
	AssignRequest(ctx context.Context, id, deliveryPersonID, bidID uuid.UUID, fare int64) (bool, error)
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, from, to domain.RequestStatus) (bool, error)
}

// SeedRequest stores a request of requester. For any status past pending it
// is assigned to dp with a final fare of 60 and walked forward to status.
func SeedRequest(t testing.TB, q RequestWriter, requester, dp uuid.UUID, status domain.RequestStatus) domain.Request {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	r := domain.Request{
		ID:                 uuid.New(),
		RequesterID:        requester,
		Pickup:             "Cafeteria",
		Dropoff:            "Hall A",
		PackageDetails:     "lunch",
		PreferredTime:      now,
		Status:             domain.StatusPending,
		FareRecommendation: 60,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	require.NoError(t, q.InsertRequest(ctx, &r))
	if status == domain.StatusPending {
		return r
	}
	if status == domain.StatusCanceled {
		ok, err := q.UpdateRequestStatus(ctx, r.ID, domain.StatusPending, domain.StatusCanceled)
		require.NoError(t, err)
		require.True(t, ok)
		r.Status = status
		return r
	}

	ok, err := q.AssignRequest(ctx, r.ID, dp, uuid.New(), 60)
	require.NoError(t, err)
	require.True(t, ok)
	fare := int64(60)
	r.DeliveryPersonID, r.FinalFare = &dp, &fare

	from := domain.StatusAssigned
	for _, to := range []domain.RequestStatus{domain.StatusPickedUp, domain.StatusInTransit, domain.StatusDelivered} {
		if from == status {
			break
		}
		ok, err := q.UpdateRequestStatus(ctx, r.ID, from, to)
		require.NoError(t, err)
		require.True(t, ok)
		from = to
	}
	r.Status = from
	return r
}
