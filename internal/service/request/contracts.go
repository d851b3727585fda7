package request

import (
	"context"
	"time"

	"github.com/google/uuid"

	"campusdrop/internal/domain"
	"campusdrop/internal/ports/events"
	"campusdrop/internal/ports/storetx"
)

// FareEstimator prices a request and estimates its delivery time.
type FareEstimator interface {
	Fare(pickup, dropoff string, preferred, now time.Time) int64
	ETA(pickup, dropoff string) int
}

type completionRecorder interface {
	RecordCompletion(ctx context.Context, q storetx.Queries, deliveryPersonID uuid.UUID) (int, error)
}

type dispatcher interface {
	Persist(ctx context.Context, q storetx.NotificationQueries, ns ...domain.Notification) error
	Emit(ctx context.Context, msgs ...events.Message)
}
