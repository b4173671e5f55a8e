//go:build integration

package main_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentwheel/service-rental/internal/application"
	"github.com/rentwheel/service-rental/internal/common/apperror"
	bookingDomain "github.com/rentwheel/service-rental/internal/domain/booking"
	"github.com/rentwheel/service-rental/internal/events"
)

func TestRentalFlow(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupRentalStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.Close()

	ctx := context.Background()
	owner := seedUser(t, stack, true)
	renter := seedUser(t, stack, false)

	t.Run("created booking is stored and published", func(t *testing.T) {
		car := seedCar(t, stack, owner.ID(), 5000)

		bk, err := stack.Service.CreateBooking(ctx, renter.ID(), application.CreateBookingRequest{
			CarID:      car.ID(),
			PickupDate: "2024-01-01T10:00:00Z",
			ReturnDate: "2024-01-03T10:00:00Z",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(10000), bk.PriceCents)
		assert.Equal(t, "pending", bk.Status)

		stored, err := stack.Bookings.FindByID(ctx, bk.ID)
		require.NoError(t, err)
		assert.Equal(t, owner.ID(), stored.OwnerID())
		assert.True(t, stored.PickupDate().Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))

		ce := consumeEvent(t, infra.KafkaBrokers, bookingTopic, events.BookingCreated, bk.ID.String(), 15*time.Second)
		assert.Equal(t, events.Source, ce.Source)

		var created events.BookingCreatedEvent
		require.NoError(t, ce.ParseData(&created))
		assert.Equal(t, bk.ID, created.BookingID)
		assert.Equal(t, car.ID(), created.CarID)
		assert.Equal(t, int64(10000), created.PriceCents)
	})

	t.Run("overlap is rejected by the ledger query", func(t *testing.T) {
		car := seedCar(t, stack, owner.ID(), 4000)
		book := func(pickup, ret string) error {
			_, err := stack.Service.CreateBooking(ctx, renter.ID(), application.CreateBookingRequest{
				CarID: car.ID(), PickupDate: pickup, ReturnDate: ret,
			})
			return err
		}

		require.NoError(t, book("2024-03-10", "2024-03-15"))

		err := book("2024-03-14", "2024-03-20")
		assert.True(t, apperror.Is(err, apperror.KindConflict), "got %v", err)

		err = book("2024-03-01", "2024-03-30")
		assert.True(t, apperror.Is(err, apperror.KindConflict), "got %v", err)

		// Touching ranges do not overlap.
		require.NoError(t, book("2024-03-15", "2024-03-18"))
		require.NoError(t, book("2024-03-05", "2024-03-10"))
	})

	t.Run("location filter matches exactly", func(t *testing.T) {
		car := seedCar(t, stack, owner.ID(), 3500)

		found, err := stack.Cars.FindByLocationAndAvailable(ctx, "Porto")
		require.NoError(t, err)
		ids := make([]string, 0, len(found))
		for _, c := range found {
			ids = append(ids, c.ID().String())
		}
		assert.Contains(t, ids, car.ID().String())

		found, err = stack.Cars.FindByLocationAndAvailable(ctx, "porto")
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("cancelled booking frees its range", func(t *testing.T) {
		car := seedCar(t, stack, owner.ID(), 3000)
		req := application.CreateBookingRequest{CarID: car.ID(), PickupDate: "2024-05-01", ReturnDate: "2024-05-04"}

		first, err := stack.Service.CreateBooking(ctx, renter.ID(), req)
		require.NoError(t, err)

		cancelled, err := stack.Service.ChangeStatus(ctx, owner.ID(), first.ID, "cancelled")
		require.NoError(t, err)
		assert.Equal(t, int64(2), cancelled.Version)

		ce := consumeEvent(t, infra.KafkaBrokers, bookingTopic, events.BookingStatusChanged, first.ID.String(), 15*time.Second)
		var changed events.BookingStatusChangedEvent
		require.NoError(t, ce.ParseData(&changed))
		assert.Equal(t, "pending", changed.From)
		assert.Equal(t, "cancelled", changed.To)
		assert.Equal(t, owner.ID(), changed.ChangedBy)

		_, err = stack.Service.CreateBooking(ctx, renter.ID(), req)
		require.NoError(t, err)
	})

	t.Run("stale status update is a conflict", func(t *testing.T) {
		car := seedCar(t, stack, owner.ID(), 3000)
		bk, err := stack.Service.CreateBooking(ctx, renter.ID(), application.CreateBookingRequest{
			CarID: car.ID(), PickupDate: "2024-07-01", ReturnDate: "2024-07-02",
		})
		require.NoError(t, err)

		a, err := stack.Bookings.FindByID(ctx, bk.ID)
		require.NoError(t, err)
		b, err := stack.Bookings.FindByID(ctx, bk.ID)
		require.NoError(t, err)

		require.NoError(t, a.ChangeStatus(bookingDomain.StatusConfirmed))
		a.IncrementVersion()
		require.NoError(t, stack.Bookings.Update(ctx, a))

		require.NoError(t, b.ChangeStatus(bookingDomain.StatusCancelled))
		b.IncrementVersion()
		err = stack.Bookings.Update(ctx, b)
		assert.True(t, apperror.Is(err, apperror.KindConflict), "got %v", err)
	})

	t.Run("owner dashboard reads the database", func(t *testing.T) {
		fleetOwner := seedUser(t, stack, true)
		car := seedCar(t, stack, fleetOwner.ID(), 2500)
		bk, err := stack.Service.CreateBooking(ctx, renter.ID(), application.CreateBookingRequest{
			CarID: car.ID(), PickupDate: "2024-09-01", ReturnDate: "2024-09-03",
		})
		require.NoError(t, err)
		_, err = stack.Service.ChangeStatus(ctx, fleetOwner.ID(), bk.ID, "confirmed")
		require.NoError(t, err)

		dash, err := stack.Service.GetOwnerDashboard(ctx, fleetOwner.ID())
		require.NoError(t, err)
		assert.Equal(t, 1, dash.TotalCars)
		assert.Equal(t, 1, dash.ActiveBookings)
		assert.Equal(t, int64(5000), dash.TotalEarningsCents)
	})

	// Without the creation guard two creators that both read an empty ledger
	// both succeed. The shared database does not prevent it.
	t.Run("concurrent creators without guard", func(t *testing.T) {
		car := seedCar(t, stack, owner.ID(), 3000)
		req := application.CreateBookingRequest{CarID: car.ID(), PickupDate: "2024-11-01", ReturnDate: "2024-11-05"}

		var wg sync.WaitGroup
		errs := make([]error, 8)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = stack.Service.CreateBooking(ctx, renter.ID(), req)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.True(t, apperror.Is(err, apperror.KindConflict), "got %v", err)
		}
		assert.GreaterOrEqual(t, succeeded, 1)
	})
}
