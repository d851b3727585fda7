// Package notify persists inbox notifications and fans live events out to
// the configured sinks.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"campusdrop/internal/domain"
	"campusdrop/internal/logx"
	"campusdrop/internal/ports/events"
	"campusdrop/internal/ports/storetx"
)

// Dispatcher works in two phases: Persist inside the originating
// transaction, Emit after it commits. A nil Dispatcher persists nothing and
// emits nothing.
type Dispatcher struct {
	publishers []events.Publisher
	logger     logx.Logger
	counter    *prometheus.CounterVec
	now        func() time.Time
}

// NewDispatcher returns a Dispatcher emitting to publishers. counter may be nil.
func NewDispatcher(logger logx.Logger, counter *prometheus.CounterVec, publishers ...events.Publisher) *Dispatcher {
	return &Dispatcher{
		publishers: publishers,
		logger:     logger.With(logx.String("component", "notify")),
		counter:    counter,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Persist writes ns through q. Errors abort the caller's transaction.
func (d *Dispatcher) Persist(ctx context.Context, q storetx.NotificationQueries, ns ...domain.Notification) error {
	if d == nil || len(ns) == 0 {
		return nil
	}
	if err := q.InsertNotifications(ctx, ns); err != nil {
		return fmt.Errorf("persist %d notifications: %w", len(ns), err)
	}
	return nil
}

// Emit hands msgs to every publisher. Failures are logged and counted, never
// returned.
func (d *Dispatcher) Emit(ctx context.Context, msgs ...events.Message) {
	if d == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, m := range msgs {
		if m.At.IsZero() {
			m.At = d.now()
		}
		if len(d.publishers) == 0 {
			d.logger.Debug("no live event sinks", logx.String("type", string(m.Type)))
			continue
		}
		for _, p := range d.publishers {
			d.publish(ctx, p, m)
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, p events.Publisher, m events.Message) {
	defer func() {
		if r := recover(); r != nil {
			d.count(m, p, "panic")
			d.logger.Error("live event sink panicked",
				logx.String("sink", p.Name()),
				logx.String("type", string(m.Type)),
				logx.Any("panic", r),
			)
		}
	}()

	if err := p.Publish(ctx, m); err != nil {
		d.count(m, p, "error")
		d.logger.Warn("live event not delivered",
			logx.String("sink", p.Name()),
			logx.String("type", string(m.Type)),
			logx.String("topic", m.Topic),
			logx.Err(err),
		)
		return
	}
	d.count(m, p, "ok")
}

func (d *Dispatcher) count(m events.Message, p events.Publisher, result string) {
	if d.counter != nil {
		d.counter.WithLabelValues(string(m.Type), p.Name(), result).Inc()
	}
}

// New builds an unread notification.
func New(recipient uuid.UUID, typ domain.NotificationType, requestID uuid.UUID, sender *uuid.UUID, msg string, at time.Time) domain.Notification {
	return domain.Notification{
		ID:          uuid.New(),
		RecipientID: recipient,
		SenderID:    sender,
		Type:        typ,
		RequestID:   &requestID,
		Message:     msg,
		CreatedAt:   at,
	}
}

// RequestEvent builds a live event on the request's topic.
func RequestEvent(typ events.Type, r *domain.Request, at time.Time) events.Message {
	return events.Message{
		Type:      typ,
		Topic:     events.RequestTopic(r.ID),
		RequestID: r.ID,
		Status:    r.Status,
		At:        at,
	}
}
