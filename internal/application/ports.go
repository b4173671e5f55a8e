package application

import (
	"context"
	"errors"

	"github.com/google/uuid"

	bookingDomain "github.com/rentwheel/service-rental/internal/domain/booking"
)

// BookingEventPublisher announces booking lifecycle changes. Publishing is
// best-effort: implementations log failures instead of returning them.
type BookingEventPublisher interface {
	BookingCreated(ctx context.Context, bk *bookingDomain.Booking)
	BookingStatusChanged(ctx context.Context, bk *bookingDomain.Booking, previous bookingDomain.BookingStatus, actorID uuid.UUID)
}

// CreationGuard serializes booking creation per car. Acquire returns a
// release func that must be called once the booking is written or rejected.
// Without a guard, two concurrent creators can both pass the availability
// re-check and write overlapping bookings.
type CreationGuard interface {
	Acquire(ctx context.Context, carID uuid.UUID) (release func(), err error)
}

// ErrCreationLocked is returned by a CreationGuard when another creator
// holds the car. Any other Acquire error is a guard store failure.
var ErrCreationLocked = errors.New("booking lock held")

// ImageVariant describes the delivery transformation applied to an upload.
type ImageVariant struct {
	Width   int
	Height  int
	Crop    string
	Quality string
	Format  string
}

// ImageFile is an uploaded image held in memory.
type ImageFile struct {
	Name string
	Data []byte
}

// ImageStore uploads images to the external image service and returns the
// public URL of the requested variant.
type ImageStore interface {
	Upload(ctx context.Context, folder string, file ImageFile, variant ImageVariant) (string, error)
}

var (
	carImageVariant     = ImageVariant{Width: 1280, Quality: "auto", Format: "webp"}
	profileImageVariant = ImageVariant{Width: 200, Height: 200, Crop: "at_max"}
)

const (
	carImageFolder     = "/cars"
	profileImageFolder = "/profiles"
)
