package car

import (
	"context"

	"github.com/google/uuid"
)

// CarRepository defines persistence operations for the car catalog.
type CarRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Car, error)
	// FindByIDs returns the cars that exist among ids, in no particular order.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Car, error)
	// FindByLocationAndAvailable returns listed cars in location whose
	// availability flag is set.
	FindByLocationAndAvailable(ctx context.Context, location string) ([]*Car, error)
	// FindListed returns every listed car whose availability flag is set.
	FindListed(ctx context.Context) ([]*Car, error)
	// FindByOwnerID returns the cars currently listed by ownerID.
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*Car, error)
	Save(ctx context.Context, car *Car) error
	Update(ctx context.Context, car *Car) error
}
