package apperr

import "errors"

// ErrInvalid is returned when the input fails domain validation.
var ErrInvalid = errors.New("invalid input")

// ErrNotFound indicates that the referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized indicates that the actor lacks permission for the action.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInvalidState indicates that the entity is not in a state that permits the action.
// Lost races on conditional writes surface as this error.
var ErrInvalidState = errors.New("invalid state")

// ErrInvalidTransition indicates an illegal request status transition.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrConflict indicates a uniqueness conflict (HTTP 409).
var ErrConflict = errors.New("conflict")

// ErrTx wraps storage failures that aborted a transaction.
var ErrTx = errors.New("transaction failed")

// IsDomain reports whether err carries one of the domain sentinels above.
func IsDomain(err error) bool {
	for _, target := range []error{ErrInvalid, ErrNotFound, ErrUnauthorized, ErrInvalidState, ErrInvalidTransition, ErrConflict} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
