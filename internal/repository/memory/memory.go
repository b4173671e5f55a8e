// Package memory is test support: map-backed implementations of the
// repository interfaces shared by the application, handler and guard tests.
// They keep the NotFound, exact-location and optimistic-locking contract of
// the gorm repositories. The server never wires them; production storage is
// the gorm repositories in the parent package.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rentwheel/service-rental/internal/common/apperror"
	bookingDomain "github.com/rentwheel/service-rental/internal/domain/booking"
	carDomain "github.com/rentwheel/service-rental/internal/domain/car"
	userDomain "github.com/rentwheel/service-rental/internal/domain/user"
)

var (
	_ bookingDomain.BookingRepository = (*BookingStore)(nil)
	_ carDomain.CarRepository         = (*CarStore)(nil)
	_ userDomain.UserRepository       = (*UserStore)(nil)
)

// BookingStore is an in-memory BookingRepository.
type BookingStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]bookingDomain.Booking
	order []uuid.UUID
}

// NewBookingStore creates an empty BookingStore.
func NewBookingStore() *BookingStore {
	return &BookingStore{items: make(map[uuid.UUID]bookingDomain.Booking)}
}

func (s *BookingStore) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bk, ok := s.items[id]
	if !ok {
		return nil, apperror.NewNotFoundError("Booking", id.String())
	}
	return &bk, nil
}

func (s *BookingStore) FindOverlapping(_ context.Context, carID uuid.UUID, pickup, ret time.Time) ([]*bookingDomain.Booking, error) {
	return s.filter(func(bk *bookingDomain.Booking) bool {
		return bk.CarID() == carID &&
			bk.Status().BlocksAvailability() &&
			bk.PickupDate().Before(ret) &&
			bk.ReturnDate().After(pickup)
	}), nil
}

func (s *BookingStore) FindByUserID(_ context.Context, userID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return s.newestFirst(s.filter(func(bk *bookingDomain.Booking) bool {
		return bk.UserID() == userID
	})), nil
}

func (s *BookingStore) FindByCarIDs(_ context.Context, carIDs []uuid.UUID) ([]*bookingDomain.Booking, error) {
	want := make(map[uuid.UUID]struct{}, len(carIDs))
	for _, id := range carIDs {
		want[id] = struct{}{}
	}
	return s.newestFirst(s.filter(func(bk *bookingDomain.Booking) bool {
		_, ok := want[bk.CarID()]
		return ok
	})), nil
}

func (s *BookingStore) Save(_ context.Context, bk *bookingDomain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[bk.ID()]; ok {
		return apperror.NewConflictError("booking already exists")
	}
	s.items[bk.ID()] = *bk
	s.order = append(s.order, bk.ID())
	return nil
}

func (s *BookingStore) Update(_ context.Context, bk *bookingDomain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.items[bk.ID()]
	if !ok || stored.Version() != bk.Version()-1 {
		return apperror.NewConflictError("booking was modified by another transaction")
	}
	s.items[bk.ID()] = *bk
	return nil
}

// Len returns the number of stored bookings.
func (s *BookingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// filter returns copies in insertion order.
func (s *BookingStore) filter(keep func(*bookingDomain.Booking) bool) []*bookingDomain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*bookingDomain.Booking
	for _, id := range s.order {
		bk := s.items[id]
		if keep(&bk) {
			out = append(out, &bk)
		}
	}
	return out
}

func (s *BookingStore) newestFirst(bookings []*bookingDomain.Booking) []*bookingDomain.Booking {
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt().After(bookings[j].CreatedAt())
	})
	return bookings
}

// CarStore is an in-memory CarRepository.
type CarStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]carDomain.Car
	order []uuid.UUID
}

// NewCarStore creates a CarStore seeded with cars.
func NewCarStore(cars ...*carDomain.Car) *CarStore {
	s := &CarStore{items: make(map[uuid.UUID]carDomain.Car)}
	for _, c := range cars {
		s.items[c.ID()] = *c
		s.order = append(s.order, c.ID())
	}
	return s
}

func (s *CarStore) FindByID(_ context.Context, id uuid.UUID) (*carDomain.Car, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[id]
	if !ok {
		return nil, apperror.NewNotFoundError("Car", id.String())
	}
	return &c, nil
}

func (s *CarStore) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*carDomain.Car, error) {
	want := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	return s.filter(func(c *carDomain.Car) bool {
		_, ok := want[c.ID()]
		return ok
	}), nil
}

func (s *CarStore) FindByLocationAndAvailable(_ context.Context, location string) ([]*carDomain.Car, error) {
	return s.filter(func(c *carDomain.Car) bool {
		return c.IsBookable() && c.Location() == location
	}), nil
}

func (s *CarStore) FindListed(_ context.Context) ([]*carDomain.Car, error) {
	return s.filter(func(c *carDomain.Car) bool { return c.IsBookable() }), nil
}

func (s *CarStore) FindByOwnerID(_ context.Context, ownerID uuid.UUID) ([]*carDomain.Car, error) {
	return s.filter(func(c *carDomain.Car) bool { return c.IsOwnedBy(ownerID) }), nil
}

func (s *CarStore) Save(_ context.Context, c *carDomain.Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[c.ID()]; ok {
		return apperror.NewConflictError("car already exists")
	}
	s.items[c.ID()] = *c
	s.order = append(s.order, c.ID())
	return nil
}

func (s *CarStore) Update(_ context.Context, c *carDomain.Car) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.items[c.ID()]
	if !ok || stored.Version() != c.Version()-1 {
		return apperror.NewConflictError("car was modified by another transaction")
	}
	s.items[c.ID()] = *c
	return nil
}

func (s *CarStore) filter(keep func(*carDomain.Car) bool) []*carDomain.Car {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*carDomain.Car
	for _, id := range s.order {
		c := s.items[id]
		if keep(&c) {
			out = append(out, &c)
		}
	}
	return out
}

// UserStore is an in-memory UserRepository with a unique email index.
type UserStore struct {
	mu      sync.RWMutex
	items   map[uuid.UUID]userDomain.User
	byEmail map[string]uuid.UUID
}

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{
		items:   make(map[uuid.UUID]userDomain.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *UserStore) Save(_ context.Context, u *userDomain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[u.Email()]; ok {
		return apperror.NewConflictError("user already exists")
	}
	s.items[u.ID()] = *u
	s.byEmail[u.Email()] = u.ID()
	return nil
}

func (s *UserStore) Update(_ context.Context, u *userDomain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[u.ID()]; !ok {
		return apperror.NewNotFoundError("User", u.ID().String())
	}
	s.items[u.ID()] = *u
	return nil
}

func (s *UserStore) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.items[id]
	if !ok {
		return nil, apperror.NewNotFoundError("User", id.String())
	}
	return &u, nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*userDomain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, apperror.NewNotFoundError("User", email)
	}
	u := s.items[id]
	return &u, nil
}
