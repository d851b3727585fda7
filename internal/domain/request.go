package domain

import (
	"time"

	"github.com/google/uuid"
)

// Request is a delivery job posted by a requester.
type Request struct {
	ID                 uuid.UUID
	RequesterID        uuid.UUID
	DeliveryPersonID   *uuid.UUID
	SelectedBidID      *uuid.UUID
	Pickup             string
	Dropoff            string
	PackageDetails     string
	PreferredTime      time.Time
	Status             RequestStatus
	FareRecommendation int64
	FinalFare          *int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AssignedTo reports whether userID is the assigned delivery person.
func (r *Request) AssignedTo(userID uuid.UUID) bool {
	return r.DeliveryPersonID != nil && *r.DeliveryPersonID == userID
}

// IsParticipant reports whether userID is the requester or the assigned delivery person.
func (r *Request) IsParticipant(userID uuid.UUID) bool {
	return r.RequesterID == userID || r.AssignedTo(userID)
}
