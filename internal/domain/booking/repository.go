package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository defines the persistence contract for the booking ledger.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindOverlapping returns the non-cancelled bookings of a car whose
	// stored period intersects [pickup, ret).
	FindOverlapping(ctx context.Context, carID uuid.UUID, pickup, ret time.Time) ([]*Booking, error)

	// FindByUserID retrieves a renter's bookings, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*Booking, error)

	// FindByCarIDs retrieves the bookings of the given cars, newest first.
	FindByCarIDs(ctx context.Context, carIDs []uuid.UUID) ([]*Booking, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
