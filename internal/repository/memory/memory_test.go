package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentwheel/service-rental/internal/common/apperror"
	bookingDomain "github.com/rentwheel/service-rental/internal/domain/booking"
	carDomain "github.com/rentwheel/service-rental/internal/domain/car"
	userDomain "github.com/rentwheel/service-rental/internal/domain/user"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func newBooking(t *testing.T, carID uuid.UUID, from, to int) *bookingDomain.Booking {
	t.Helper()
	period, err := bookingDomain.NewRentalPeriod(day(from), day(to))
	require.NoError(t, err)
	bk, err := bookingDomain.NewBooking(carID, uuid.New(), uuid.New(), period, 1000)
	require.NoError(t, err)
	return bk
}

func TestBookingStore_OverlapAndVersion(t *testing.T) {
	ctx := context.Background()
	s := NewBookingStore()
	carID := uuid.New()
	bk := newBooking(t, carID, 2, 4)
	require.NoError(t, s.Save(ctx, bk))

	found, err := s.FindOverlapping(ctx, carID, day(3), day(5))
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = s.FindOverlapping(ctx, carID, day(4), day(6))
	require.NoError(t, err)
	assert.Empty(t, found)

	stale, err := s.FindByID(ctx, bk.ID())
	require.NoError(t, err)

	require.NoError(t, bk.ChangeStatus(bookingDomain.StatusCancelled))
	bk.IncrementVersion()
	require.NoError(t, s.Update(ctx, bk))

	require.NoError(t, stale.ChangeStatus(bookingDomain.StatusConfirmed))
	stale.IncrementVersion()
	assert.True(t, apperror.Is(s.Update(ctx, stale), apperror.KindConflict))

	found, err = s.FindOverlapping(ctx, carID, day(3), day(5))
	require.NoError(t, err)
	assert.Empty(t, found, "cancelled bookings do not block")

	_, err = s.FindByID(ctx, uuid.New())
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestCarStore_LocationIsExact(t *testing.T) {
	c, err := carDomain.NewCar(uuid.New(), carDomain.Listing{
		Brand: "Seat", Model: "Ibiza", Year: 2019, Category: "City",
		ImageURL: "https://ik.example.com/cars/ibiza.webp", Location: "Madrid",
		Description: "Zippy", PricePerDayCents: 2500, Transmission: "Manual",
		FuelType: "Petrol", SeatingCapacity: 5,
	})
	require.NoError(t, err)
	s := NewCarStore(c)

	found, err := s.FindByLocationAndAvailable(context.Background(), "Madrid")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = s.FindByLocationAndAvailable(context.Background(), "madrid")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestUserStore_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()

	u, err := userDomain.NewUser("Ada", "ada@example.com", "hash")
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, u))

	dup, err := userDomain.NewUser("Other", "ada@example.com", "hash")
	require.NoError(t, err)
	assert.True(t, apperror.Is(s.Save(ctx, dup), apperror.KindConflict))

	got, err := s.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID(), got.ID())
}
