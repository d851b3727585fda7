package domain

import "github.com/google/uuid"

// Stats is the admin dashboard summary.
type Stats struct {
	Users              UserCounts
	Requests           RequestCounts
	TopDeliveryPersons []DeliveryPersonSummary
}

// UserCounts counts profiles per role.
type UserCounts struct {
	Total           int
	Requesters      int
	DeliveryPersons int
}

// RequestCounts buckets requests by status. Active covers assigned,
// picked_up and in_transit.
type RequestCounts struct {
	Total     int
	Pending   int
	Active    int
	Delivered int
	Canceled  int
}

// DeliveryPersonSummary is a leaderboard row.
type DeliveryPersonSummary struct {
	ID                       uuid.UUID
	FullName                 string
	TotalDeliveriesCompleted int
	AvgRating                float64
}
