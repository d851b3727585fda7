package bid

import (
	"context"

	"campusdrop/internal/domain"
	"campusdrop/internal/ports/events"
	"campusdrop/internal/ports/storetx"
)

type dispatcher interface {
	Persist(ctx context.Context, q storetx.NotificationQueries, ns ...domain.Notification) error
	Emit(ctx context.Context, msgs ...events.Message)
}
