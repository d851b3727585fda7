package domain

type (
	// RequestStatus is the lifecycle state of a delivery request.
	RequestStatus string
	// BidStatus is the state of a bid.
	BidStatus string
)

// List of request statuses
const (
	StatusPending   RequestStatus = "pending"
	StatusAssigned  RequestStatus = "assigned"
	StatusPickedUp  RequestStatus = "picked_up"
	StatusInTransit RequestStatus = "in_transit"
	StatusDelivered RequestStatus = "delivered"
	StatusCanceled  RequestStatus = "canceled"
)

// List of bid statuses
const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
)

var allowedStatuses = [...]RequestStatus{
	StatusPending, StatusAssigned, StatusPickedUp, StatusInTransit, StatusDelivered, StatusCanceled,
}

// transitions is the only place legal request moves are declared.
// Cancellation is accepted from pending only; once a bid is accepted the
// request can only move forward.
var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:   {StatusAssigned, StatusCanceled},
	StatusAssigned:  {StatusPickedUp},
	StatusPickedUp:  {StatusInTransit},
	StatusInTransit: {StatusDelivered},
}

// InFlightStatuses lists the statuses of an assigned, undelivered request.
var InFlightStatuses = []RequestStatus{StatusAssigned, StatusPickedUp, StatusInTransit}

// Valid checks if the RequestStatus is valid
func (s RequestStatus) Valid() bool {
	for _, v := range allowedStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is permitted.
func (s RequestStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

// Active reports whether the request has been assigned and is still in flight.
func (s RequestStatus) Active() bool {
	for _, v := range InFlightStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// CanTransition reports whether from -> to is declared in the transition table.
func CanTransition(from, to RequestStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

