package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bookingDomain "github.com/rentwheel/service-rental/internal/domain/booking"
	carDomain "github.com/rentwheel/service-rental/internal/domain/car"
	"github.com/rentwheel/service-rental/internal/repository/memory"
)

type recordedEvent struct {
	kind     string
	booking  uuid.UUID
	previous bookingDomain.BookingStatus
	actor    uuid.UUID
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) BookingCreated(_ context.Context, bk *bookingDomain.Booking) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{kind: "created", booking: bk.ID()})
}

func (p *recordingPublisher) BookingStatusChanged(_ context.Context, bk *bookingDomain.Booking, previous bookingDomain.BookingStatus, actorID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{kind: "status_changed", booking: bk.ID(), previous: previous, actor: actorID})
}

func (p *recordingPublisher) all() []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedEvent(nil), p.events...)
}

type fakeImageStore struct {
	uploads []string
	err     error
}

func (f *fakeImageStore) Upload(_ context.Context, folder string, file ImageFile, variant ImageVariant) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, folder+"/"+file.Name)
	return fmt.Sprintf("https://ik.example.com/tr:w-%d%s/%s", variant.Width, folder, file.Name), nil
}

// mutexGuard serializes creators per car inside the process.
type mutexGuard struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newMutexGuard() *mutexGuard {
	return &mutexGuard{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (g *mutexGuard) Acquire(_ context.Context, carID uuid.UUID) (func(), error) {
	g.mu.Lock()
	l, ok := g.locks[carID]
	if !ok {
		l = &sync.Mutex{}
		g.locks[carID] = l
	}
	g.mu.Unlock()
	l.Lock()
	return l.Unlock, nil
}

// failingGuard fails every Acquire with err.
type failingGuard struct {
	err error
}

func (g failingGuard) Acquire(context.Context, uuid.UUID) (func(), error) {
	return nil, g.err
}

// barrierBookings holds every FindOverlapping caller until n callers have
// read the ledger, so that all of them see the same snapshot.
type barrierBookings struct {
	*memory.BookingStore
	arrived sync.WaitGroup
}

func newBarrierBookings(n int) *barrierBookings {
	b := &barrierBookings{BookingStore: memory.NewBookingStore()}
	b.arrived.Add(n)
	return b
}

func (b *barrierBookings) FindOverlapping(ctx context.Context, carID uuid.UUID, pickup, ret time.Time) ([]*bookingDomain.Booking, error) {
	found, err := b.BookingStore.FindOverlapping(ctx, carID, pickup, ret)
	b.arrived.Done()
	b.arrived.Wait()
	return found, err
}

type failingBookings struct {
	*memory.BookingStore
}

func (failingBookings) FindOverlapping(context.Context, uuid.UUID, time.Time, time.Time) ([]*bookingDomain.Booking, error) {
	return nil, errors.New("connection refused")
}

func newTestCar(t *testing.T, ownerID uuid.UUID, location string, pricePerDayCents int64) *carDomain.Car {
	t.Helper()
	c, err := carDomain.NewCar(ownerID, carDomain.Listing{
		Brand:            "Toyota",
		Model:            "Corolla",
		Year:             2022,
		Category:         "Sedan",
		ImageURL:         "https://ik.example.com/cars/corolla.webp",
		Location:         location,
		Description:      "Reliable daily driver",
		PricePerDayCents: pricePerDayCents,
		Transmission:     "Automatic",
		FuelType:         "Petrol",
		SeatingCapacity:  5,
	})
	require.NoError(t, err)
	return c
}

type bookingFixture struct {
	svc      *BookingService
	bookings *memory.BookingStore
	cars     *memory.CarStore
	events   *recordingPublisher
}

func newBookingFixture(t *testing.T, cars ...*carDomain.Car) *bookingFixture {
	t.Helper()
	f := &bookingFixture{
		bookings: memory.NewBookingStore(),
		cars:     memory.NewCarStore(cars...),
		events:   &recordingPublisher{},
	}
	f.svc = NewBookingService(f.bookings, f.cars, bookingDomain.NewDailyPricingStrategy(), f.events, zap.NewNop())
	return f
}

// seedBooking stores a booking directly in the ledger with the given status.
func (f *bookingFixture) seedBooking(t *testing.T, c *carDomain.Car, renterID uuid.UUID, pickup, ret string, status bookingDomain.BookingStatus) *bookingDomain.Booking {
	t.Helper()
	p, err := ParseDate("pickup_date", pickup)
	require.NoError(t, err)
	r, err := ParseDate("return_date", ret)
	require.NoError(t, err)
	period, err := bookingDomain.NewRentalPeriod(p, r)
	require.NoError(t, err)

	bk, err := bookingDomain.NewBooking(c.ID(), renterID, *c.OwnerID(), period, 1000)
	require.NoError(t, err)
	if status != bookingDomain.StatusPending {
		require.NoError(t, bk.ChangeStatus(status))
	}
	require.NoError(t, f.bookings.Save(context.Background(), bk))
	return bk
}
