package domain

import (
	"time"

	"github.com/google/uuid"
)

// Rating bounds
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a requester's rating of the delivery person for one request.
type Review struct {
	ID         uuid.UUID
	RequestID  uuid.UUID
	ReviewerID uuid.UUID
	RevieweeID uuid.UUID
	Rating     int
	Comment    string
	CreatedAt  time.Time
}
