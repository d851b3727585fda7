package memstore_test

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
	"campusdrop/internal/ports/storetx"
	"campusdrop/internal/repository/memstore"
)

func newRequest(requester uuid.UUID, at time.Time) *domain.Request {
	return &domain.Request{
		ID:          uuid.New(),
		RequesterID: requester,
		Pickup:      "Cafe A",
		Dropoff:     "Hall B",
		Status:      domain.StatusPending,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func TestInsertRequest_OneActivePerRequester(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	requester := uuid.New()

	first := newRequest(requester, time.Now())
	require.NoError(t, s.InsertRequest(ctx, first))

	err := s.InsertRequest(ctx, newRequest(requester, time.Now()))
	require.ErrorIs(t, err, apperr.ErrConflict)

	ok, err := s.UpdateRequestStatus(ctx, first.ID, domain.StatusPending, domain.StatusCanceled)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.InsertRequest(ctx, newRequest(requester, time.Now())))
}

func TestUpdateRequestStatus_GuardsPriorStatus(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	r := newRequest(uuid.New(), time.Now())
	require.NoError(t, s.InsertRequest(ctx, r))

	ok, err := s.UpdateRequestStatus(ctx, r.ID, domain.StatusAssigned, domain.StatusPickedUp)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.UpdateRequestStatus(ctx, uuid.New(), domain.StatusPending, domain.StatusCanceled)
	require.NoError(t, err)
	require.False(t, ok)

	got, err := s.GetRequest(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, got.Status)
}

func TestAssignRequest(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	r := newRequest(uuid.New(), time.Now())
	require.NoError(t, s.InsertRequest(ctx, r))

	dp, bid := uuid.New(), uuid.New()
	ok, err := s.AssignRequest(ctx, r.ID, dp, bid, 80)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.AssignRequest(ctx, r.ID, uuid.New(), uuid.New(), 70)
	require.NoError(t, err)
	require.False(t, ok)

	got, err := s.GetRequest(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAssigned, got.Status)
	require.Equal(t, dp, *got.DeliveryPersonID)
	require.Equal(t, bid, *got.SelectedBidID)
	require.EqualValues(t, 80, *got.FinalFare)
}

func TestBids_UniqueAndOrdered(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	r := newRequest(uuid.New(), time.Now())
	require.NoError(t, s.InsertRequest(ctx, r))

	base := time.Now()
	amounts := []int64{120, 80, 100, 80}
	for i, amount := range amounts {
		require.NoError(t, s.InsertBid(ctx, &domain.Bid{
			ID:               uuid.New(),
			RequestID:        r.ID,
			DeliveryPersonID: uuid.New(),
			Amount:           amount,
			Status:           domain.BidPending,
			CreatedAt:        base.Add(time.Duration(i) * time.Second),
		}))
	}

	bids, err := s.ListBidsByRequest(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, bids, 4)
	require.EqualValues(t, []int64{80, 80, 100, 120}, []int64{bids[0].Amount, bids[1].Amount, bids[2].Amount, bids[3].Amount})
	require.True(t, bids[0].CreatedAt.Before(bids[1].CreatedAt))

	dup := bids[0]
	dup.ID = uuid.New()
	require.ErrorIs(t, s.InsertBid(ctx, &dup), apperr.ErrConflict)

	has, err := s.HasBid(ctx, r.ID, bids[0].DeliveryPersonID)
	require.NoError(t, err)
	require.True(t, has)
}

func TestAcceptAndRejectSiblings(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	r := newRequest(uuid.New(), time.Now())
	require.NoError(t, s.InsertRequest(ctx, r))

	var ids []uuid.UUID
	for range 3 {
		b := &domain.Bid{ID: uuid.New(), RequestID: r.ID, DeliveryPersonID: uuid.New(), Amount: 50, Status: domain.BidPending}
		require.NoError(t, s.InsertBid(ctx, b))
		ids = append(ids, b.ID)
	}

	ok, err := s.AcceptBid(ctx, ids[1])
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.AcceptBid(ctx, ids[1])
	require.NoError(t, err)
	require.False(t, ok)

	n, err := s.RejectSiblingBids(ctx, r.ID, ids[1])
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	winner, err := s.GetBid(ctx, ids[1])
	require.NoError(t, err)
	require.Equal(t, domain.BidAccepted, winner.Status)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	r := newRequest(uuid.New(), time.Now())
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(q storetx.Queries) error {
		require.NoError(t, q.InsertRequest(ctx, r))
		got, err := q.GetRequest(ctx, r.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.GetRequest(ctx, r.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	r := newRequest(uuid.New(), time.Now())

	require.Panics(t, func() {
		_ = s.WithTx(ctx, func(q storetx.Queries) error {
			require.NoError(t, q.InsertRequest(ctx, r))
			panic("boom")
		})
	})

	got, err := s.GetRequest(ctx, r.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestWithTx_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := memstore.New().WithTx(ctx, func(storetx.Queries) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}

func TestWithTx_ConcurrentCAS(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	r := newRequest(uuid.New(), time.Now())
	require.NoError(t, s.InsertRequest(ctx, r))

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WithTx(ctx, func(q storetx.Queries) error {
				ok, err := q.AssignRequest(ctx, r.ID, uuid.New(), uuid.New(), 10)
				if err != nil || !ok {
					return err
				}
				mu.Lock()
				applied++
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	require.Equal(t, 1, applied)
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	recipient := uuid.New()
	base := time.Now()

	var batch []domain.Notification
	for i := range 3 {
		batch = append(batch, domain.Notification{
			ID:          uuid.New(),
			RecipientID: recipient,
			Type:        domain.NotifNewBid,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}
	require.NoError(t, s.InsertNotifications(ctx, batch))

	got, err := s.ListNotifications(ctx, recipient, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, batch[2].ID, got[0].ID)

	ok, err := s.MarkNotificationRead(ctx, batch[0].ID)
	require.NoError(t, err)
	require.True(t, ok)

	n, err := s.MarkAllNotificationsRead(ctx, recipient)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestCounts(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	dp := uuid.New()

	require.NoError(t, s.InsertUser(ctx, &domain.User{ID: dp, Role: domain.RoleDeliveryPerson, IsDeliveryPersonActive: true}))
	require.NoError(t, s.InsertUser(ctx, &domain.User{ID: uuid.New(), Role: domain.RoleDeliveryPerson, IsBlocked: true, IsDeliveryPersonActive: true}))
	require.ErrorIs(t, s.InsertUser(ctx, &domain.User{ID: dp}), apperr.ErrConflict)

	available, err := s.ListAvailableDeliveryPersons(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)

	for range 2 {
		r := newRequest(uuid.New(), time.Now())
		require.NoError(t, s.InsertRequest(ctx, r))
		ok, err := s.AssignRequest(ctx, r.ID, dp, uuid.New(), 10)
		require.NoError(t, err)
		require.True(t, ok)
		ok, err = s.UpdateRequestStatus(ctx, r.ID, domain.StatusAssigned, domain.StatusDelivered)
		require.NoError(t, err)
		require.True(t, ok)
	}

	n, err := s.CountDelivered(ctx, dp)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	byStatus, err := s.CountRequestsByStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, byStatus[domain.StatusDelivered])

	byRole, err := s.CountUsersByRole(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, byRole[domain.RoleDeliveryPerson])
}

func TestUpdateRequestStatus_StampsStoreClock(t *testing.T) {
	ctx := context.Background()
	stamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := memstore.New(memstore.WithClock(func() time.Time { return stamp }))

	r := newRequest(uuid.New(), stamp.Add(-time.Hour))
	require.NoError(t, s.InsertRequest(ctx, r))

	ok, err := s.UpdateRequestStatus(ctx, r.ID, domain.StatusPending, domain.StatusCanceled)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.GetRequest(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, stamp, got.UpdatedAt)
}

func TestListings_BreakCreatedAtTiesByID(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	recipient := uuid.New()

	var wantRequests, wantNotifications []uuid.UUID
	var ns []domain.Notification
	for range 6 {
		r := newRequest(uuid.New(), at)
		require.NoError(t, s.InsertRequest(ctx, r))
		wantRequests = append(wantRequests, r.ID)

		n := domain.Notification{ID: uuid.New(), RecipientID: recipient, Type: domain.NotifNewBid, CreatedAt: at}
		ns = append(ns, n)
		wantNotifications = append(wantNotifications, n.ID)
	}
	require.NoError(t, s.InsertNotifications(ctx, ns))

	byBytes := func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) }
	slices.SortFunc(wantRequests, byBytes)
	slices.SortFunc(wantNotifications, byBytes)

	requests, err := s.ListRequests(ctx)
	require.NoError(t, err)
	gotRequests := make([]uuid.UUID, 0, len(requests))
	for _, r := range requests {
		gotRequests = append(gotRequests, r.ID)
	}
	require.Equal(t, wantRequests, gotRequests)

	inbox, err := s.ListNotifications(ctx, recipient, 0)
	require.NoError(t, err)
	gotNotifications := make([]uuid.UUID, 0, len(inbox))
	for _, n := range inbox {
		gotNotifications = append(gotNotifications, n.ID)
	}
	require.Equal(t, wantNotifications, gotNotifications)
}
