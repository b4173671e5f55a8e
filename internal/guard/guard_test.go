package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rentwheel/service-rental/internal/application"
	"github.com/rentwheel/service-rental/internal/common/apperror"
	bookingDomain "github.com/rentwheel/service-rental/internal/domain/booking"
	carDomain "github.com/rentwheel/service-rental/internal/domain/car"
	"github.com/rentwheel/service-rental/internal/repository/memory"
)

// unreachableClient points at a port nothing listens on.
func unreachableClient(t *testing.T) *RedisGuard {
	t.Helper()
	client := NewRedisClient("127.0.0.1:1", "", 0)
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGuard(client, time.Second, zap.NewNop())
}

func TestRedisGuard_ConnectionErrorIsNotLockHeld(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := unreachableClient(t).Acquire(ctx, uuid.New())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrLocked))
}

func TestRedisGuard_OutageSurfacesAsStoreFailure(t *testing.T) {
	c, err := carDomain.NewCar(uuid.New(), carDomain.Listing{
		Brand:            "Fiat",
		Model:            "500",
		Year:             2020,
		Category:         "City",
		ImageURL:         "https://ik.example.com/cars/500.webp",
		Location:         "Rome",
		Description:      "Small",
		PricePerDayCents: 3000,
		Transmission:     "Manual",
		FuelType:         "Petrol",
		SeatingCapacity:  4,
	})
	require.NoError(t, err)

	bookings := memory.NewBookingStore()
	svc := application.NewBookingService(bookings, memory.NewCarStore(c), bookingDomain.NewDailyPricingStrategy(),
		noEvents{}, zap.NewNop(), application.WithCreationGuard(unreachableClient(t)))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err = svc.CreateBooking(ctx, uuid.New(), application.CreateBookingRequest{
		CarID:      c.ID(),
		PickupDate: "2024-01-01",
		ReturnDate: "2024-01-03",
	})
	require.Error(t, err)
	assert.Equal(t, apperror.KindStoreFailure, apperror.KindOf(err))
	assert.Equal(t, "internal server error", apperror.PublicMessage(err))
	assert.Zero(t, bookings.Len())
}

type noEvents struct{}

func (noEvents) BookingCreated(context.Context, *bookingDomain.Booking) {}

func (noEvents) BookingStatusChanged(context.Context, *bookingDomain.Booking, bookingDomain.BookingStatus, uuid.UUID) {
}
