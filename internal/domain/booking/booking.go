package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rentwheel/service-rental/internal/common/apperror"
)

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id      uuid.UUID
	carID   uuid.UUID
	userID  uuid.UUID
	ownerID uuid.UUID
	period  RentalPeriod

	priceCents int64
	status     BookingStatus

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking aggregate with status=pending. ownerID is
// the car's owner at this moment and is never re-derived afterwards.
func NewBooking(
	carID uuid.UUID,
	userID uuid.UUID,
	ownerID uuid.UUID,
	period RentalPeriod,
	priceCents int64,
) (*Booking, error) {
	if carID == uuid.Nil {
		return nil, apperror.NewValidationError("car ID is required")
	}
	if userID == uuid.Nil {
		return nil, apperror.NewValidationError("user ID is required")
	}
	if ownerID == uuid.Nil {
		return nil, apperror.NewValidationError("owner ID is required")
	}
	if !period.Return.After(period.Pickup) {
		return nil, apperror.NewInvalidRangeError("return date must be after pickup date")
	}
	if priceCents < 0 {
		return nil, apperror.NewValidationError("price cannot be negative")
	}

	now := time.Now().UTC()
	return &Booking{
		id:         uuid.New(),
		carID:      carID,
		userID:     userID,
		ownerID:    ownerID,
		period:     period,
		priceCents: priceCents,
		status:     StatusPending,
		version:    1,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	carID uuid.UUID,
	userID uuid.UUID,
	ownerID uuid.UUID,
	period RentalPeriod,
	priceCents int64,
	status BookingStatus,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:         id,
		carID:      carID,
		userID:     userID,
		ownerID:    ownerID,
		period:     period,
		priceCents: priceCents,
		status:     status,
		version:    version,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// CarID returns the booked car.
func (b *Booking) CarID() uuid.UUID { return b.carID }

// UserID returns the renter's user ID.
func (b *Booking) UserID() uuid.UUID { return b.userID }

// OwnerID returns the car owner captured when the booking was made.
func (b *Booking) OwnerID() uuid.UUID { return b.ownerID }

// Period returns the rental period.
func (b *Booking) Period() RentalPeriod { return b.period }

// PickupDate returns the start of the rental.
func (b *Booking) PickupDate() time.Time { return b.period.Pickup }

// ReturnDate returns the end of the rental.
func (b *Booking) ReturnDate() time.Time { return b.period.Return }

// PriceCents returns the total price in cents.
func (b *Booking) PriceCents() int64 { return b.priceCents }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// IsManagedBy reports whether actorID may change this booking's status.
func (b *Booking) IsManagedBy(actorID uuid.UUID) bool {
	return actorID != uuid.Nil && b.ownerID == actorID
}

// ChangeStatus moves the booking to target.
func (b *Booking) ChangeStatus(target BookingStatus) error {
	if !b.status.CanTransitionTo(target) {
		return apperror.NewValidationError(fmt.Sprintf("cannot change booking status from %s to %s", b.status, target))
	}
	b.status = target
	b.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
