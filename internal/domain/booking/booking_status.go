package booking

import (
	"fmt"

	"github.com/rentwheel/service-rental/internal/common/apperror"
)

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
)

// validTransitions defines the state machine for booking status transitions.
// Every status reaches every other one, including re-opening a cancelled
// booking; there is no terminal status.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPending, StatusCancelled},
	StatusCancelled: {StatusPending, StatusConfirmed},
}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target
// is allowed. Setting the current status again is a no-op and allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	if !target.IsValid() {
		return false
	}
	if s == target {
		return true
	}
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// BlocksAvailability reports whether a booking in this status occupies its
// car for its rental period.
func (s BookingStatus) BlocksAvailability() bool {
	return s != StatusCancelled
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", apperror.NewValidationError(fmt.Sprintf("invalid booking status: %q", s))
	}
	return status, nil
}
