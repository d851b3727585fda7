package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"campusdrop/internal/domain"
	"campusdrop/internal/metrics"
	"campusdrop/internal/ports/events"
	"campusdrop/internal/ports/events/eventsmock"
	"campusdrop/internal/repository/memstore"
	"campusdrop/internal/service/notify"
	intest "campusdrop/internal/testutil"
)

func TestDispatcher_EmitSwallowsSinkErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	failing := eventsmock.NewMockPublisher(ctrl)
	failing.EXPECT().Name().Return("kafka").AnyTimes()
	failing.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	sink := intest.NewSink()
	rec := intest.NewRecorder()
	counter := metrics.NewLiveEventsTotal()
	d := notify.NewDispatcher(rec.Logger(), counter, failing, sink)

	id := uuid.New()
	d.Emit(context.Background(), events.Message{Type: events.NewBid, Topic: events.RequestTopic(id), RequestID: id})

	require.Equal(t, []events.Type{events.NewBid}, sink.Types())
	require.False(t, sink.Messages()[0].At.IsZero())

	warns := rec.ByLevel("warn")
	require.Len(t, warns, 1)
	sinkName, _ := warns[0].Field("sink")
	require.Equal(t, "kafka", sinkName)

	require.InDelta(t, 1, testutil.ToFloat64(counter.WithLabelValues("new_bid", "kafka", "error")), 1e-9)
	require.InDelta(t, 1, testutil.ToFloat64(counter.WithLabelValues("new_bid", "capture", "ok")), 1e-9)
}

func TestDispatcher_EmitRecoversPanickingSink(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := eventsmock.NewMockPublisher(ctrl)
	p.EXPECT().Name().Return("ws").AnyTimes()
	p.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, events.Message) error {
		panic("closed channel")
	})

	rec := intest.NewRecorder()
	d := notify.NewDispatcher(rec.Logger(), nil, p)

	require.NotPanics(t, func() {
		d.Emit(context.Background(), events.Message{Type: events.NewRequest, Topic: events.BroadcastTopic})
	})
	require.Len(t, rec.ByLevel("error"), 1)
}

func TestDispatcher_EmitIgnoresCanceledContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := eventsmock.NewMockPublisher(ctrl)
	p.EXPECT().Name().Return("pubsub").AnyTimes()
	p.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ events.Message) error {
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := intest.NewRecorder()
	notify.NewDispatcher(rec.Logger(), nil, p).Emit(ctx, events.Message{Type: events.NewBid})
	require.Empty(t, rec.ByLevel("warn"))
}

func TestDispatcher_Nil(t *testing.T) {
	var d *notify.Dispatcher
	require.NotPanics(t, func() {
		d.Emit(context.Background(), events.Message{Type: events.NewBid})
	})
	require.NoError(t, d.Persist(context.Background(), memstore.New(), domain.Notification{ID: uuid.New()}))
}

func TestDispatcher_Persist(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	d := notify.NewDispatcher(intest.NewRecorder().Logger(), nil)

	recipient, requestID := uuid.New(), uuid.New()
	n := notify.New(recipient, domain.NotifBidAccepted, requestID, nil, "your bid was accepted", time.Now())
	require.NoError(t, d.Persist(ctx, s, n))
	require.Error(t, d.Persist(ctx, s, n))

	got, err := s.ListNotifications(ctx, recipient, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.False(t, got[0].IsRead)
	require.Equal(t, requestID, *got[0].RequestID)
}

func TestRequestEvent_TargetsRequestTopic(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := &domain.Request{ID: uuid.New(), Status: domain.StatusPickedUp}

	m := notify.RequestEvent(events.RequestStatusUpdated, r, at)
	require.Equal(t, events.RequestStatusUpdated, m.Type)
	require.Equal(t, events.RequestTopic(r.ID), m.Topic)
	require.Equal(t, r.ID, m.RequestID)
	require.Equal(t, domain.StatusPickedUp, m.Status)
	require.Equal(t, at, m.At)
}
