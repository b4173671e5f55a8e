package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rentwheel/service-rental/internal/common/apperror"
	"github.com/rentwheel/service-rental/internal/common/metrics"
	bookingDomain "github.com/rentwheel/service-rental/internal/domain/booking"
	carDomain "github.com/rentwheel/service-rental/internal/domain/car"
)

const (
	defaultAvailabilityConcurrency = 8
	recentBookingsLimit            = 5
)

// AvailabilityRequest asks which cars in a location are free for a range.
type AvailabilityRequest struct {
	Location   string `json:"location" binding:"required"`
	PickupDate string `json:"pickup_date" binding:"required"`
	ReturnDate string `json:"return_date" binding:"required"`
}

// AvailabilityDTO lists the cars free for the requested range.
type AvailabilityDTO struct {
	Count         int      `json:"count"`
	AvailableCars []CarDTO `json:"available_cars"`
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	CarID      uuid.UUID `json:"car_id" binding:"required"`
	PickupDate string    `json:"pickup_date" binding:"required"`
	ReturnDate string    `json:"return_date" binding:"required"`
}

// ChangeStatusRequest carries the target status of a booking.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID         uuid.UUID `json:"id"`
	CarID      uuid.UUID `json:"car_id"`
	UserID     uuid.UUID `json:"user_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	PickupDate time.Time `json:"pickup_date"`
	ReturnDate time.Time `json:"return_date"`
	PriceCents int64     `json:"price_cents"`
	Status     string    `json:"status"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Car        *CarDTO   `json:"car,omitempty"`
}

// DashboardDTO summarizes an owner's fleet and bookings.
type DashboardDTO struct {
	TotalCars          int          `json:"total_cars"`
	AvailableCars      int          `json:"available_cars"`
	TotalBookings      int          `json:"total_bookings"`
	PendingBookings    int          `json:"pending_bookings"`
	ActiveBookings     int          `json:"active_bookings"`
	TotalEarningsCents int64        `json:"total_earnings_cents"`
	RecentBookings     []BookingDTO `json:"recent_bookings"`
}

// BookingOption configures optional BookingService behaviour.
type BookingOption func(*BookingService)

// WithCreationGuard serializes CreateBooking per car through guard.
func WithCreationGuard(guard CreationGuard) BookingOption {
	return func(s *BookingService) { s.guard = guard }
}

// WithAvailabilityConcurrency bounds the per-car checks run at once by
// CheckAvailability. Values below one are ignored.
func WithAvailabilityConcurrency(n int) BookingOption {
	return func(s *BookingService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	bookings    bookingDomain.BookingRepository
	cars        carDomain.CarRepository
	pricing     bookingDomain.PricingStrategy
	events      BookingEventPublisher
	guard       CreationGuard
	concurrency int
	logger      *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	bookings bookingDomain.BookingRepository,
	cars carDomain.CarRepository,
	pricing bookingDomain.PricingStrategy,
	events BookingEventPublisher,
	logger *zap.Logger,
	opts ...BookingOption,
) *BookingService {
	s := &BookingService{
		bookings:    bookings,
		cars:        cars,
		pricing:     pricing,
		events:      events,
		concurrency: defaultAvailabilityConcurrency,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsAvailable reports whether no non-cancelled booking of the car overlaps
// [pickup, ret).
func (s *BookingService) IsAvailable(ctx context.Context, carID uuid.UUID, pickup, ret time.Time) (bool, error) {
	overlapping, err := s.bookings.FindOverlapping(ctx, carID, pickup, ret)
	if err != nil {
		s.logger.Error("availability check failed", zap.String("car_id", carID.String()), zap.Error(err))
		return false, fmt.Errorf("failed to check availability: %w", err)
	}
	available := len(overlapping) == 0
	metrics.ObserveAvailabilityCheck(available)
	return available, nil
}

// CheckAvailability parses the request and lists the cars in the location
// that are free for the range.
func (s *BookingService) CheckAvailability(ctx context.Context, req AvailabilityRequest) (*AvailabilityDTO, error) {
	period, err := parsePeriod(req.PickupDate, req.ReturnDate)
	if err != nil {
		return nil, err
	}

	cars, err := s.ListAvailableCars(ctx, req.Location, period.Pickup, period.Return)
	if err != nil {
		return nil, err
	}

	return &AvailabilityDTO{Count: len(cars), AvailableCars: toCarDTOs(cars)}, nil
}

// ListAvailableCars runs the pairwise check for every bookable car in the
// location. Checks for distinct cars run concurrently; the result keeps the
// catalog order.
func (s *BookingService) ListAvailableCars(ctx context.Context, location string, pickup, ret time.Time) ([]*carDomain.Car, error) {
	candidates, err := s.cars.FindByLocationAndAvailable(ctx, location)
	if err != nil {
		s.logger.Error("failed to load cars by location", zap.String("location", location), zap.Error(err))
		return nil, fmt.Errorf("failed to load cars: %w", err)
	}

	free := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, c := range candidates {
		if !c.IsBookable() {
			continue
		}
		i, c := i, c
		g.Go(func() error {
			ok, err := s.IsAvailable(gctx, c.ID(), pickup, ret)
			if err != nil {
				return err
			}
			free[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]*carDomain.Car, 0, len(candidates))
	for i, c := range candidates {
		if free[i] {
			result = append(result, c)
		}
	}
	return result, nil
}

// CreateBooking books a car for the renter in pending state.
func (s *BookingService) CreateBooking(ctx context.Context, renterID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	bk, err := s.createBooking(ctx, renterID, req)
	if err != nil {
		metrics.IncBookingRejected(string(apperror.KindOf(err)))
		return nil, err
	}
	metrics.IncBookingCreated()

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("car_id", bk.CarID().String()),
		zap.String("user_id", renterID.String()),
		zap.Int64("price_cents", bk.PriceCents()),
	)
	s.events.BookingCreated(ctx, bk)

	result := toBookingDTO(bk)
	return &result, nil
}

func (s *BookingService) createBooking(ctx context.Context, renterID uuid.UUID, req CreateBookingRequest) (*bookingDomain.Booking, error) {
	period, err := parsePeriod(req.PickupDate, req.ReturnDate)
	if err != nil {
		return nil, err
	}

	if s.guard != nil {
		release, err := s.guard.Acquire(ctx, req.CarID)
		if err != nil {
			if errors.Is(err, ErrCreationLocked) {
				return nil, apperror.NewConflictError("another booking for this car is in progress")
			}
			s.logger.Error("failed to acquire booking lock", zap.String("car_id", req.CarID.String()), zap.Error(err))
			return nil, apperror.NewStoreFailure("failed to acquire booking lock", err)
		}
		defer release()
	}

	available, err := s.IsAvailable(ctx, req.CarID, period.Pickup, period.Return)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, apperror.NewConflictError("car is not available for these dates")
	}

	c, err := s.cars.FindByID(ctx, req.CarID)
	if err != nil {
		return nil, err
	}
	if !c.IsBookable() {
		return nil, apperror.NewConflictError("car is not available for booking")
	}

	price, err := s.pricing.Calculate(c.PricePerDayCents(), period)
	if err != nil {
		return nil, err
	}

	bk, err := bookingDomain.NewBooking(c.ID(), renterID, *c.OwnerID(), period, price)
	if err != nil {
		return nil, err
	}

	if err := s.bookings.Save(ctx, bk); err != nil {
		s.logger.Error("failed to save booking", zap.String("car_id", c.ID().String()), zap.Error(err))
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}
	return bk, nil
}

// ChangeStatus moves a booking to status on behalf of actorID, who must be
// the owner recorded on the booking.
func (s *BookingService) ChangeStatus(ctx context.Context, actorID, bookingID uuid.UUID, status string) (*BookingDTO, error) {
	target, err := bookingDomain.ParseBookingStatus(status)
	if err != nil {
		return nil, err
	}

	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !bk.IsManagedBy(actorID) {
		return nil, apperror.NewForbiddenError("only the car owner can change booking status")
	}

	previous := bk.Status()
	if err := bk.ChangeStatus(target); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.bookings.Update(ctx, bk); err != nil {
		s.logger.Error("failed to update booking status",
			zap.String("booking_id", bookingID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}
	metrics.IncStatusChange(target.String())

	s.logger.Info("booking status changed",
		zap.String("booking_id", bookingID.String()),
		zap.String("from", previous.String()),
		zap.String("to", target.String()),
	)
	s.events.BookingStatusChanged(ctx, bk, previous, actorID)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetMyBookings returns the renter's bookings, newest first, with the car
// attached where it still exists.
func (s *BookingService) GetMyBookings(ctx context.Context, userID uuid.UUID) ([]BookingDTO, error) {
	bookings, err := s.bookings.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}
	return s.withCars(ctx, bookings)
}

// GetOwnerBookings returns the bookings of the cars the owner currently
// lists, newest first.
func (s *BookingService) GetOwnerBookings(ctx context.Context, ownerID uuid.UUID) ([]BookingDTO, error) {
	cars, err := s.cars.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get owner cars: %w", err)
	}
	bookings, err := s.bookingsOf(ctx, cars)
	if err != nil {
		return nil, err
	}
	return attachCars(bookings, cars), nil
}

// GetOwnerDashboard aggregates the owner's cars and their bookings.
func (s *BookingService) GetOwnerDashboard(ctx context.Context, ownerID uuid.UUID) (*DashboardDTO, error) {
	cars, err := s.cars.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get owner cars: %w", err)
	}
	bookings, err := s.bookingsOf(ctx, cars)
	if err != nil {
		return nil, err
	}

	dash := &DashboardDTO{
		TotalCars:     len(cars),
		TotalBookings: len(bookings),
	}
	for _, c := range cars {
		if c.IsAvailable() {
			dash.AvailableCars++
		}
	}
	for _, bk := range bookings {
		switch bk.Status() {
		case bookingDomain.StatusPending:
			dash.PendingBookings++
		case bookingDomain.StatusConfirmed:
			dash.ActiveBookings++
			dash.TotalEarningsCents += bk.PriceCents()
		}
	}

	recent := bookings
	if len(recent) > recentBookingsLimit {
		recent = recent[:recentBookingsLimit]
	}
	dash.RecentBookings = attachCars(recent, cars)
	return dash, nil
}

// bookingsOf loads the bookings of cars, newest first.
func (s *BookingService) bookingsOf(ctx context.Context, cars []*carDomain.Car) ([]*bookingDomain.Booking, error) {
	if len(cars) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, len(cars))
	for i, c := range cars {
		ids[i] = c.ID()
	}
	bookings, err := s.bookings.FindByCarIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get car bookings: %w", err)
	}
	sortNewestFirst(bookings)
	return bookings, nil
}

func (s *BookingService) withCars(ctx context.Context, bookings []*bookingDomain.Booking) ([]BookingDTO, error) {
	seen := make(map[uuid.UUID]struct{}, len(bookings))
	ids := make([]uuid.UUID, 0, len(bookings))
	for _, bk := range bookings {
		if _, ok := seen[bk.CarID()]; !ok {
			seen[bk.CarID()] = struct{}{}
			ids = append(ids, bk.CarID())
		}
	}

	var cars []*carDomain.Car
	if len(ids) > 0 {
		var err error
		cars, err = s.cars.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load booked cars: %w", err)
		}
	}
	sortNewestFirst(bookings)
	return attachCars(bookings, cars), nil
}

// --- Helpers ---

func parsePeriod(pickupValue, returnValue string) (bookingDomain.RentalPeriod, error) {
	pickup, err := ParseDate("pickup_date", pickupValue)
	if err != nil {
		return bookingDomain.RentalPeriod{}, err
	}
	ret, err := ParseDate("return_date", returnValue)
	if err != nil {
		return bookingDomain.RentalPeriod{}, err
	}
	return bookingDomain.NewRentalPeriod(pickup, ret)
}

func sortNewestFirst(bookings []*bookingDomain.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt().After(bookings[j].CreatedAt())
	})
}

func attachCars(bookings []*bookingDomain.Booking, cars []*carDomain.Car) []BookingDTO {
	byID := make(map[uuid.UUID]*carDomain.Car, len(cars))
	for _, c := range cars {
		byID[c.ID()] = c
	}
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
		if c, ok := byID[bk.CarID()]; ok {
			car := toCarDTO(c)
			dtos[i].Car = &car
		}
	}
	return dtos
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:         bk.ID(),
		CarID:      bk.CarID(),
		UserID:     bk.UserID(),
		OwnerID:    bk.OwnerID(),
		PickupDate: bk.PickupDate(),
		ReturnDate: bk.ReturnDate(),
		PriceCents: bk.PriceCents(),
		Status:     bk.Status().String(),
		Version:    bk.Version(),
		CreatedAt:  bk.CreatedAt(),
		UpdatedAt:  bk.UpdatedAt(),
	}
}
