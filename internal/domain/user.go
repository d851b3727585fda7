package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is the marketplace role of a user.
type Role string

// List of roles
const (
	RoleRequester      Role = "requester"
	RoleDeliveryPerson Role = "deliveryPerson"
	RoleAdmin          Role = "admin"
)

// Valid checks if the Role is valid
func (r Role) Valid() bool {
	switch r {
	case RoleRequester, RoleDeliveryPerson, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is the marketplace profile of an identity.
// AvgRating and TotalDeliveriesCompleted are derived values written only by
// the rating aggregator.
type User struct {
	ID                       uuid.UUID
	FullName                 string
	Role                     Role
	IsDeliveryPersonActive   bool
	IsBlocked                bool
	AvgRating                float64
	TotalDeliveriesCompleted int
	CreatedAt                time.Time
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
