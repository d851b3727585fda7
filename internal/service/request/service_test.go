package request_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
	"campusdrop/internal/ports/events"
	"campusdrop/internal/repository/memstore"
	"campusdrop/internal/service/notify"
	"campusdrop/internal/service/rating"
	"campusdrop/internal/service/request"
	"campusdrop/internal/testutil"
)

type fixture struct {
	ctx   context.Context
	store *memstore.Store
	sink  *testutil.Sink
	logs  *testutil.Recorder
	svc   *request.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:   context.Background(),
		store: memstore.New(),
		sink:  testutil.NewSink(),
		logs:  testutil.NewRecorder(),
	}
	d := notify.NewDispatcher(f.logs.Logger(), nil, f.sink)
	f.svc = request.NewService(request.Deps{
		Store:       f.store,
		Estimator:   request.NewCampusEstimator(time.UTC),
		Completions: rating.NewService(f.store, d, time.Second, f.logs.Logger(), nil),
		Notifier:    d,
		Logger:      f.logs.Logger(),
	}, time.Second)
	return f
}

func (f *fixture) create(t *testing.T, requester uuid.UUID) domain.Request {
	t.Helper()
	r, err := f.svc.CreateRequest(f.ctx, request.CreateInput{
		RequesterID:    requester,
		Pickup:         "Dining Center",
		Dropoff:        "Male Hostel",
		PackageDetails: "2 coffees",
	})
	require.NoError(t, err)
	return r
}

// assign stands in for an accepted bid.
func (f *fixture) assign(t *testing.T, r domain.Request, dp uuid.UUID) {
	t.Helper()
	ok, err := f.store.AssignRequest(f.ctx, r.ID, dp, uuid.New(), 80)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCreateRequest_OneActivePerRequester(t *testing.T) {
	f := newFixture(t)
	u1 := testutil.SeedUser(t, f.store, domain.RoleRequester)

	r, err := f.svc.CreateRequest(f.ctx, request.CreateInput{
		RequesterID: u1.ID, Pickup: "CafeA", Dropoff: "Hall B", PackageDetails: "2 coffees",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, r.Status)
	require.Positive(t, r.FareRecommendation)
	require.False(t, r.PreferredTime.IsZero())

	_, err = f.svc.CreateRequest(f.ctx, request.CreateInput{
		RequesterID: u1.ID, Pickup: "CafeA", Dropoff: "Hall C", PackageDetails: "1 tea",
	})
	require.ErrorIs(t, err, apperr.ErrConflict)

	active, err := f.svc.GetActiveForRequester(f.ctx, u1.ID)
	require.NoError(t, err)
	require.Equal(t, r.ID, active.ID)
}

func TestCreateRequest_FansOutToAvailableDeliveryPersons(t *testing.T) {
	f := newFixture(t)
	requester := testutil.SeedUser(t, f.store, domain.RoleRequester)
	dp1 := testutil.SeedUser(t, f.store, domain.RoleDeliveryPerson)
	dp2 := testutil.SeedUser(t, f.store, domain.RoleDeliveryPerson)
	off := testutil.SeedUser(t, f.store, domain.RoleDeliveryPerson, testutil.Inactive)
	blocked := testutil.SeedUser(t, f.store, domain.RoleDeliveryPerson, testutil.Blocked)

	r := f.create(t, requester.ID)

	for _, dp := range []domain.User{dp1, dp2} {
		ns, err := f.store.ListNotifications(f.ctx, dp.ID, 10)
		require.NoError(t, err)
		require.Len(t, ns, 1)
		require.Equal(t, domain.NotifNewRequest, ns[0].Type)
		require.Equal(t, r.ID, *ns[0].RequestID)
	}
	for _, dp := range []domain.User{off, blocked} {
		ns, err := f.store.ListNotifications(f.ctx, dp.ID, 10)
		require.NoError(t, err)
		require.Empty(t, ns)
	}

	msgs := f.sink.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, events.NewRequest, msgs[0].Type)
	require.Equal(t, events.BroadcastTopic, msgs[0].Topic)
	require.Len(t, f.logs.WithField("event", "request_created"), 1)
}

func TestCreateRequest_Rejects(t *testing.T) {
	f := newFixture(t)
	requester := testutil.SeedUser(t, f.store, domain.RoleRequester)
	blocked := testutil.SeedUser(t, f.store, domain.RoleRequester, testutil.Blocked)
	dp := testutil.SeedUser(t, f.store, domain.RoleDeliveryPerson)

	_, err := f.svc.CreateRequest(f.ctx, request.CreateInput{RequesterID: requester.ID, Pickup: " ", Dropoff: "x", PackageDetails: "y"})
	require.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = f.svc.CreateRequest(f.ctx, request.CreateInput{RequesterID: blocked.ID, Pickup: "a", Dropoff: "b", PackageDetails: "c"})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = f.svc.CreateRequest(f.ctx, request.CreateInput{RequesterID: dp.ID, Pickup: "a", Dropoff: "b", PackageDetails: "c"})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	require.Empty(t, f.sink.Messages())
}

func TestAdvanceStatus_NoSkipping(t *testing.T) {
	f := newFixture(t)
	requester := testutil.SeedUser(t, f.store, domain.RoleRequester)
	dp := testutil.SeedUser(t, f.store, domain.RoleDeliveryPerson)
	r := f.create(t, requester.ID)

	_, err := f.svc.AdvanceStatus(f.ctx, r.ID, dp.ID, domain.StatusInTransit)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.svc.AdvanceStatus(f.ctx, r.ID, requester.ID, domain.StatusAssigned)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.svc.AdvanceStatus(f.ctx, r.ID, dp.ID, domain.RequestStatus("teleported"))
	require.ErrorIs(t, err, apperr.ErrInvalid)

	_, err = f.svc.AdvanceStatus(f.ctx, uuid.New(), dp.ID, domain.StatusPickedUp)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAdvanceStatus_FullLifecycleCountsCompletionOnce(t *testing.T) {
	f := newFixture(t)
	requester := testutil.SeedUser(t, f.store, domain.RoleRequester)
	dp := testutil.SeedUser(t, f.store, domain.RoleDeliveryPerson)
	other := testutil.SeedUser(t, f.store, domain.RoleDeliveryPerson)
	r := f.create(t, requester.ID)
	f.assign(t, r, dp.ID)

	_, err := f.svc.AdvanceStatus(f.ctx, r.ID, other.ID, domain.StatusPickedUp)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = f.svc.AdvanceStatus(f.ctx, r.ID, requester.ID, domain.StatusPickedUp)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	for _, next := range []domain.RequestStatus{domain.StatusPickedUp, domain.StatusInTransit, domain.StatusDelivered} {
		got, err := f.svc.AdvanceStatus(f.ctx, r.ID, dp.ID, next)
		require.NoError(t, err)
		require.Equal(t, next, got.Status)
	}

	_, err = f.svc.AdvanceStatus(f.ctx, r.ID, dp.ID, domain.StatusDelivered)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)

	u, err := f.store.GetUser(f.ctx, dp.ID)
	require.NoError(t, err)
	require.Equal(t, 1, u.TotalDeliveriesCompleted)

	ns, err := f.store.ListNotifications(f.ctx, requester.ID, 10)
	require.NoError(t, err)
	require.Len(t, ns, 3)
	for _, n := range ns {
		require.Equal(t, domain.NotifStatusUpdate, n.Type)
	}

	types := f.sink.Types()
	require.Equal(t, []events.Type{
		events.NewRequest,
		events.RequestStatusUpdated, events.RequestStatusUpdated, events.RequestStatusUpdated,
	}, types)
	last := f.sink.Messages()[3]
	require.Equal(t, events.RequestTopic(r.ID), last.Topic)
	require.Equal(t, domain.StatusDelivered, last.Status)

	active, err := f.svc.GetActiveForRequester(f.ctx, requester.ID)
	require.NoError(t, err)
	require.Nil(t, active)
}

func TestAdvanceStatus_Cancel(t *testing.T) {
	f := newFixture(t)
	requester := testutil.SeedUser(t, f.store, domain.RoleRequester)
	stranger := testutil.SeedUser(t, f.store, domain.RoleRequester)
	admin := testutil.SeedUser(t, f.store, domain.RoleAdmin)
	dp := testutil.SeedUser(t, f.store, domain.RoleDeliveryPerson)

	r := f.create(t, requester.ID)
	_, err := f.svc.AdvanceStatus(f.ctx, r.ID, stranger.ID, domain.StatusCanceled)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = f.svc.AdvanceStatus(f.ctx, r.ID, dp.ID, domain.StatusCanceled)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	got, err := f.svc.AdvanceStatus(f.ctx, r.ID, requester.ID, domain.StatusCanceled)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCanceled, got.Status)

	_, err = f.svc.AdvanceStatus(f.ctx, r.ID, requester.ID, domain.StatusCanceled)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)

	r2 := f.create(t, requester.ID)
	_, err = f.svc.AdvanceStatus(f.ctx, r2.ID, admin.ID, domain.StatusCanceled)
	require.NoError(t, err)

	r3 := f.create(t, requester.ID)
	f.assign(t, r3, dp.ID)
	_, err = f.svc.AdvanceStatus(f.ctx, r3.ID, requester.ID, domain.StatusCanceled)
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestGetBiddableForDeliveryPerson_Ordering(t *testing.T) {
	f := newFixture(t)
	dp := testutil.SeedUser(t, f.store, domain.RoleDeliveryPerson)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	var created []domain.Request
	for i := range 4 {
		requester := testutil.SeedUser(t, f.store, domain.RoleRequester)
		r := domain.Request{
			ID: uuid.New(), RequesterID: requester.ID, Pickup: "a", Dropoff: "b",
			Status: domain.StatusPending, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, f.store.InsertRequest(f.ctx, &r))
		created = append(created, r)
	}
	// oldest and third are taken by dp; the third is then delivered
	f.assign(t, created[0], dp.ID)
	f.assign(t, created[2], dp.ID)
	ok, err := f.store.UpdateRequestStatus(f.ctx, created[2].ID, domain.StatusAssigned, domain.StatusDelivered)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := f.svc.GetBiddableForDeliveryPerson(f.ctx, dp.ID)
	require.NoError(t, err)
	ids := make([]uuid.UUID, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	require.Equal(t, []uuid.UUID{created[0].ID, created[3].ID, created[1].ID}, ids)

	all, err := f.svc.ListAssigned(f.ctx, dp.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, created[2].ID, all[0].ID)

	requester := testutil.SeedUser(t, f.store, domain.RoleRequester)
	_, err = f.svc.GetBiddableForDeliveryPerson(f.ctx, requester.ID)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestGet_Visibility(t *testing.T) {
	f := newFixture(t)
	requester := testutil.SeedUser(t, f.store, domain.RoleRequester)
	stranger := testutil.SeedUser(t, f.store, domain.RoleRequester)
	admin := testutil.SeedUser(t, f.store, domain.RoleAdmin)
	dp := testutil.SeedUser(t, f.store, domain.RoleDeliveryPerson)
	otherDP := testutil.SeedUser(t, f.store, domain.RoleDeliveryPerson)
	r := f.create(t, requester.ID)

	for _, id := range []uuid.UUID{requester.ID, admin.ID, dp.ID, otherDP.ID} {
		_, err := f.svc.Get(f.ctx, id, r.ID)
		require.NoError(t, err)
	}
	_, err := f.svc.Get(f.ctx, stranger.ID, r.ID)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	f.assign(t, r, dp.ID)
	_, err = f.svc.Get(f.ctx, otherDP.ID, r.ID)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = f.svc.Get(f.ctx, dp.ID, r.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(f.ctx, admin.ID, uuid.New())
	require.ErrorIs(t, err, apperr.ErrNotFound)

	list, err := f.svc.ListAll(f.ctx, admin.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	_, err = f.svc.ListAll(f.ctx, requester.ID)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	mine, err := f.svc.ListForRequester(f.ctx, requester.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
}
