package rating_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusdrop/internal/apperr"
	"campusdrop/internal/domain"
	"campusdrop/internal/ports/events"
	"campusdrop/internal/ports/storetx"
	"campusdrop/internal/repository/memstore"
	"campusdrop/internal/service/notify"
	"campusdrop/internal/service/rating"
	"campusdrop/internal/testutil"
)

type fixture struct {
	ctx   context.Context
	store *memstore.Store
	sink  *testutil.Sink
	svc   *rating.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logs := testutil.NewRecorder()
	f := &fixture{ctx: context.Background(), store: memstore.New(), sink: testutil.NewSink()}
	f.svc = rating.NewService(f.store, notify.NewDispatcher(logs.Logger(), nil, f.sink), time.Second, logs.Logger(), nil)
	return f
}

func TestRecordReview_AveragesAcrossDeliveries(t *testing.T) {
	f := newFixture(t)
	dp := testutil.SeedUser(t, f.store, domain.RoleDeliveryPerson)
	u1 := testutil.SeedUser(t, f.store, domain.RoleRequester)
	u2 := testutil.SeedUser(t, f.store, domain.RoleRequester)

	r1 := testutil.SeedRequest(t, f.store, u1.ID, dp.ID, domain.StatusDelivered)
	r2 := testutil.SeedRequest(t, f.store, u2.ID, dp.ID, domain.StatusDelivered)

	_, err := f.svc.RecordReview(f.ctx, rating.ReviewInput{RequestID: r1.ID, ReviewerID: u1.ID, Rating: 4})
	require.NoError(t, err)
	rev, err := f.svc.RecordReview(f.ctx, rating.ReviewInput{RequestID: r2.ID, ReviewerID: u2.ID, Rating: 5, Comment: "  fast  "})
	require.NoError(t, err)
	require.Equal(t, dp.ID, rev.RevieweeID)
	require.Equal(t, "fast", rev.Comment)

	got, err := f.store.GetUser(f.ctx, dp.ID)
	require.NoError(t, err)
	require.InDelta(t, 4.5, got.AvgRating, 1e-9)

	reviews, err := f.svc.ListFor(f.ctx, dp.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	ns, err := f.store.ListNotifications(f.ctx, dp.ID, 10)
	require.NoError(t, err)
	require.Len(t, ns, 2)
	assert.Equal(t, domain.NotifNewReview, ns[0].Type)
	assert.Equal(t, []events.Type{events.NewReview, events.NewReview}, f.sink.Types())
}

func TestRecordReview_Rejects(t *testing.T) {
	f := newFixture(t)
	dp := testutil.SeedUser(t, f.store, domain.RoleDeliveryPerson)
	requester := testutil.SeedUser(t, f.store, domain.RoleRequester)
	stranger := testutil.SeedUser(t, f.store, domain.RoleRequester)

	inTransit := testutil.SeedRequest(t, f.store, requester.ID, dp.ID, domain.StatusInTransit)
	_, err := f.svc.RecordReview(f.ctx, rating.ReviewInput{RequestID: inTransit.ID, ReviewerID: requester.ID, Rating: 5})
	require.ErrorIs(t, err, apperr.ErrInvalidState)

	done := testutil.SeedRequest(t, f.store, stranger.ID, dp.ID, domain.StatusDelivered)
	_, err = f.svc.RecordReview(f.ctx, rating.ReviewInput{RequestID: done.ID, ReviewerID: requester.ID, Rating: 5})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = f.svc.RecordReview(f.ctx, rating.ReviewInput{RequestID: done.ID, ReviewerID: dp.ID, Rating: 5})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	for _, bad := range []int{0, 6, -1} {
		_, err = f.svc.RecordReview(f.ctx, rating.ReviewInput{RequestID: done.ID, ReviewerID: stranger.ID, Rating: bad})
		require.ErrorIs(t, err, apperr.ErrInvalid)
	}

	_, err = f.svc.RecordReview(f.ctx, rating.ReviewInput{RequestID: uuid.New(), ReviewerID: stranger.ID, Rating: 5})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.RecordReview(f.ctx, rating.ReviewInput{RequestID: done.ID, ReviewerID: stranger.ID, Rating: 3})
	require.NoError(t, err)
	_, err = f.svc.RecordReview(f.ctx, rating.ReviewInput{RequestID: done.ID, ReviewerID: stranger.ID, Rating: 1})
	require.ErrorIs(t, err, apperr.ErrConflict)

	got, err := f.store.GetUser(f.ctx, dp.ID)
	require.NoError(t, err)
	require.InDelta(t, 3.0, got.AvgRating, 1e-9)
}

func TestRecordCompletion_Idempotent(t *testing.T) {
	f := newFixture(t)
	dp := testutil.SeedUser(t, f.store, domain.RoleDeliveryPerson)
	requester := testutil.SeedUser(t, f.store, domain.RoleRequester)
	testutil.SeedRequest(t, f.store, requester.ID, dp.ID, domain.StatusDelivered)

	for i := 0; i < 3; i++ {
		err := f.store.WithTx(f.ctx, func(q storetx.Queries) error {
			n, err := f.svc.RecordCompletion(f.ctx, q, dp.ID)
			require.Equal(t, 1, n)
			return err
		})
		require.NoError(t, err)
	}

	got, err := f.store.GetUser(f.ctx, dp.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.TotalDeliveriesCompleted)
}

func TestAverage(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{name: "none", want: 0},
		{name: "single", ratings: []int{4}, want: 4},
		{name: "half", ratings: []int{4, 5}, want: 4.5},
		{name: "rounded", ratings: []int{5, 5, 4}, want: 4.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reviews := make([]domain.Review, 0, len(tt.ratings))
			for _, r := range tt.ratings {
				reviews = append(reviews, domain.Review{Rating: r})
			}
			assert.InDelta(t, tt.want, rating.Average(reviews), 1e-9)
		})
	}
}
