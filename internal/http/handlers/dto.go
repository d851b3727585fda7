package handlers

import (
	"time"

	"github.com/google/uuid"

	"campusdrop/internal/domain"
)

type createRequestRequest struct {
	Pickup         string     `json:"pickup_location"`
	Dropoff        string     `json:"dropoff_location"`
	PackageDetails string     `json:"package_details"`
	PreferredTime  *time.Time `json:"preferred_time,omitempty"`
}

type updateStatusRequest struct {
	Status domain.RequestStatus `json:"status"`
}

type requestDTO struct {
	ID                 uuid.UUID            `json:"id"`
	RequesterID        uuid.UUID            `json:"requester_id"`
	DeliveryPersonID   *uuid.UUID           `json:"delivery_person_id"`
	SelectedBidID      *uuid.UUID           `json:"selected_bid_id"`
	Pickup             string               `json:"pickup_location"`
	Dropoff            string               `json:"dropoff_location"`
	PackageDetails     string               `json:"package_details"`
	PreferredTime      time.Time            `json:"preferred_time"`
	Status             domain.RequestStatus `json:"status"`
	FareRecommendation int64                `json:"fare_recommendation"`
	FinalFare          *int64               `json:"final_fare"`
	ETAMinutes         int                  `json:"eta_minutes"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

type placeBidRequest struct {
	Amount int64 `json:"amount"`
}

type bidDTO struct {
	ID               uuid.UUID        `json:"id"`
	RequestID        uuid.UUID        `json:"request_id"`
	DeliveryPersonID uuid.UUID        `json:"delivery_person_id"`
	Amount           int64            `json:"amount"`
	Status           domain.BidStatus `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
}

type acceptBidResponse struct {
	Bid      bidDTO     `json:"bid"`
	Request  requestDTO `json:"request"`
	Rejected int64      `json:"rejected_bids"`
}

type confirmPaymentRequest struct {
	Amount int64 `json:"amount"`
}

type paymentDTO struct {
	ID        uuid.UUID            `json:"id"`
	RequestID uuid.UUID            `json:"request_id"`
	Amount    int64                `json:"amount"`
	Method    domain.PaymentMethod `json:"method"`
	Status    domain.PaymentStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
}

type createReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type reviewDTO struct {
	ID         uuid.UUID `json:"id"`
	RequestID  uuid.UUID `json:"request_id"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
	RevieweeID uuid.UUID `json:"reviewee_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

type notificationDTO struct {
	ID        uuid.UUID               `json:"id"`
	SenderID  *uuid.UUID              `json:"sender_id"`
	Type      domain.NotificationType `json:"type"`
	RequestID *uuid.UUID              `json:"request_id"`
	Message   string                  `json:"message"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt time.Time               `json:"created_at"`
}

type userDTO struct {
	ID                       uuid.UUID   `json:"id"`
	FullName                 string      `json:"full_name"`
	Role                     domain.Role `json:"role"`
	IsDeliveryPersonActive   bool        `json:"is_delivery_person_active"`
	IsBlocked                bool        `json:"is_blocked"`
	AvgRating                float64     `json:"avg_rating"`
	TotalDeliveriesCompleted int         `json:"total_deliveries_completed"`
	CreatedAt                time.Time   `json:"created_at"`
}

type createUserRequest struct {
	ID       *uuid.UUID  `json:"id,omitempty"`
	FullName string      `json:"full_name"`
	Role     domain.Role `json:"role"`
	Active   bool        `json:"is_delivery_person_active"`
}

type availabilityRequest struct {
	Active bool `json:"is_delivery_person_active"`
}

type blockRequest struct {
	Blocked bool `json:"is_blocked"`
}

type statsDTO struct {
	Users struct {
		Total           int `json:"total"`
		Requesters      int `json:"requesters"`
		DeliveryPersons int `json:"delivery_persons"`
	} `json:"users"`
	Requests struct {
		Total     int `json:"total"`
		Pending   int `json:"pending"`
		Active    int `json:"active"`
		Delivered int `json:"delivered"`
		Canceled  int `json:"canceled"`
	} `json:"requests"`
	TopDeliveryPersons []topDeliveryPersonDTO `json:"top_delivery_persons"`
}

type topDeliveryPersonDTO struct {
	ID                       uuid.UUID `json:"id"`
	FullName                 string    `json:"full_name"`
	TotalDeliveriesCompleted int       `json:"total_deliveries_completed"`
	AvgRating                float64   `json:"avg_rating"`
}
