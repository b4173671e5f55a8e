package car

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rentwheel/service-rental/internal/common/apperror"
)

// Listing holds the descriptive fields an owner supplies for a car.
type Listing struct {
	Brand            string
	Model            string
	Year             int
	Category         string
	ImageURL         string
	Location         string
	Description      string
	PricePerDayCents int64
	Transmission     string
	FuelType         string
	SeatingCapacity  int
}

// missingFields returns the display names of required fields left empty.
func (l Listing) missingFields() []string {
	var missing []string
	check := func(empty bool, name string) {
		if empty {
			missing = append(missing, name)
		}
	}
	check(strings.TrimSpace(l.Brand) == "", "Brand")
	check(strings.TrimSpace(l.Model) == "", "Model")
	check(l.Year <= 0, "Year")
	check(strings.TrimSpace(l.Category) == "", "Category")
	check(strings.TrimSpace(l.ImageURL) == "", "Image")
	check(strings.TrimSpace(l.Location) == "", "Location")
	check(strings.TrimSpace(l.Description) == "", "Description")
	check(strings.TrimSpace(l.Transmission) == "", "Transmission")
	check(strings.TrimSpace(l.FuelType) == "", "Fuel Type")
	check(l.SeatingCapacity <= 0, "Seating Capacity")
	return missing
}

// Car is the aggregate root for a listed rental car.
type Car struct {
	id          uuid.UUID
	ownerID     *uuid.UUID
	listing     Listing
	isAvailable bool
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewCar creates an available car listed by ownerID.
func NewCar(ownerID uuid.UUID, listing Listing) (*Car, error) {
	if ownerID == uuid.Nil {
		return nil, apperror.NewValidationError("owner ID is required")
	}
	if missing := listing.missingFields(); len(missing) > 0 {
		return nil, apperror.NewValidationError("Please fill all required fields: " + strings.Join(missing, ", "))
	}
	if listing.PricePerDayCents < 0 {
		return nil, apperror.NewValidationError("price per day cannot be negative")
	}

	now := time.Now().UTC()
	owner := ownerID
	return &Car{
		id:          uuid.New(),
		ownerID:     &owner,
		listing:     listing,
		isAvailable: true,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds a Car from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	ownerID *uuid.UUID,
	listing Listing,
	isAvailable bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Car {
	return &Car{
		id:          id,
		ownerID:     ownerID,
		listing:     listing,
		isAvailable: isAvailable,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (c *Car) ID() uuid.UUID           { return c.id }
func (c *Car) OwnerID() *uuid.UUID     { return c.ownerID }
func (c *Car) Listing() Listing        { return c.listing }
func (c *Car) PricePerDayCents() int64 { return c.listing.PricePerDayCents }
func (c *Car) Location() string        { return c.listing.Location }
func (c *Car) IsAvailable() bool       { return c.isAvailable }
func (c *Car) Version() int64          { return c.version }
func (c *Car) CreatedAt() time.Time    { return c.createdAt }
func (c *Car) UpdatedAt() time.Time    { return c.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the car is currently listed by the given owner.
func (c *Car) IsOwnedBy(ownerID uuid.UUID) bool {
	return c.ownerID != nil && *c.ownerID == ownerID
}

// IsListed reports whether the car still has an owner.
func (c *Car) IsListed() bool {
	return c.ownerID != nil
}

// IsBookable reports whether new bookings may be taken for the car. A
// delisted car is never bookable, whatever its availability flag says.
func (c *Car) IsBookable() bool {
	return c.IsListed() && c.isAvailable
}

// ToggleAvailability flips the availability flag.
func (c *Car) ToggleAvailability() {
	c.isAvailable = !c.isAvailable
	c.version++
	c.updatedAt = time.Now().UTC()
}

// Delist removes the owner and marks the car unavailable. Existing bookings
// keep the owner they captured.
func (c *Car) Delist() {
	c.ownerID = nil
	c.isAvailable = false
	c.version++
	c.updatedAt = time.Now().UTC()
}
