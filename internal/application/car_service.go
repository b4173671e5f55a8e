package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rentwheel/service-rental/internal/common/apperror"
	carDomain "github.com/rentwheel/service-rental/internal/domain/car"
)

// AddCarRequest is the request DTO for listing a car. The image arrives
// separately as a multipart file.
type AddCarRequest struct {
	Brand            string `json:"brand"`
	Model            string `json:"model"`
	Year             int    `json:"year"`
	Category         string `json:"category"`
	Location         string `json:"location"`
	Description      string `json:"description"`
	PricePerDayCents int64  `json:"price_per_day_cents"`
	Transmission     string `json:"transmission"`
	FuelType         string `json:"fuel_type"`
	SeatingCapacity  int    `json:"seating_capacity"`
}

// CarDTO is the API response representation of a car.
type CarDTO struct {
	ID               uuid.UUID  `json:"id"`
	OwnerID          *uuid.UUID `json:"owner_id"`
	Brand            string     `json:"brand"`
	Model            string     `json:"model"`
	Year             int        `json:"year"`
	Category         string     `json:"category"`
	Image            string     `json:"image"`
	Location         string     `json:"location"`
	Description      string     `json:"description"`
	PricePerDayCents int64      `json:"price_per_day_cents"`
	Transmission     string     `json:"transmission"`
	FuelType         string     `json:"fuel_type"`
	SeatingCapacity  int        `json:"seating_capacity"`
	IsAvailable      bool       `json:"is_available"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// CarService implements use cases for the car catalog.
type CarService struct {
	repo   carDomain.CarRepository
	images ImageStore
	logger *zap.Logger
}

// NewCarService creates a new CarService.
func NewCarService(repo carDomain.CarRepository, images ImageStore, logger *zap.Logger) *CarService {
	return &CarService{repo: repo, images: images, logger: logger}
}

// AddCar uploads the car image and lists a new car for the owner.
func (s *CarService) AddCar(ctx context.Context, ownerID uuid.UUID, req AddCarRequest, image *ImageFile) (*CarDTO, error) {
	if image == nil || len(image.Data) == 0 {
		return nil, apperror.NewValidationError("Image is required")
	}

	listing := req.toListing()

	// Validate before spending an upload; the real URL replaces the name.
	listing.ImageURL = image.Name
	if _, err := carDomain.NewCar(ownerID, listing); err != nil {
		return nil, err
	}

	url, err := s.images.Upload(ctx, carImageFolder, *image, carImageVariant)
	if err != nil {
		s.logger.Error("failed to upload car image", zap.String("owner_id", ownerID.String()), zap.Error(err))
		return nil, apperror.NewStoreFailure("failed to upload car image", err)
	}
	listing.ImageURL = url

	c, err := carDomain.NewCar(ownerID, listing)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, c); err != nil {
		s.logger.Error("failed to create car", zap.Error(err))
		return nil, fmt.Errorf("failed to create car: %w", err)
	}

	s.logger.Info("car listed",
		zap.String("car_id", c.ID().String()),
		zap.String("owner_id", ownerID.String()),
	)
	result := toCarDTO(c)
	return &result, nil
}

// ListCars returns every listed car that is flagged available.
func (s *CarService) ListCars(ctx context.Context) ([]CarDTO, error) {
	cars, err := s.repo.FindListed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	return toCarDTOs(cars), nil
}

// GetCar returns a single car by ID.
func (s *CarService) GetCar(ctx context.Context, carID uuid.UUID) (*CarDTO, error) {
	c, err := s.repo.FindByID(ctx, carID)
	if err != nil {
		return nil, err
	}
	result := toCarDTO(c)
	return &result, nil
}

// GetOwnerCars returns the cars currently listed by the owner.
func (s *CarService) GetOwnerCars(ctx context.Context, ownerID uuid.UUID) ([]CarDTO, error) {
	cars, err := s.repo.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get owner cars: %w", err)
	}
	return toCarDTOs(cars), nil
}

// DelistCar removes the car from the owner's listings. The car and its
// bookings are kept.
func (s *CarService) DelistCar(ctx context.Context, ownerID, carID uuid.UUID) error {
	c, err := s.ownedCar(ctx, ownerID, carID)
	if err != nil {
		return err
	}

	c.Delist()
	if err := s.repo.Update(ctx, c); err != nil {
		s.logger.Error("failed to delist car", zap.Error(err))
		return fmt.Errorf("failed to delist car: %w", err)
	}

	s.logger.Info("car delisted", zap.String("car_id", carID.String()))
	return nil
}

// ToggleAvailability flips the car's availability flag.
func (s *CarService) ToggleAvailability(ctx context.Context, ownerID, carID uuid.UUID) (*CarDTO, error) {
	c, err := s.ownedCar(ctx, ownerID, carID)
	if err != nil {
		return nil, err
	}

	c.ToggleAvailability()
	if err := s.repo.Update(ctx, c); err != nil {
		s.logger.Error("failed to toggle car availability", zap.Error(err))
		return nil, fmt.Errorf("failed to toggle car availability: %w", err)
	}

	s.logger.Info("car availability toggled",
		zap.String("car_id", carID.String()),
		zap.Bool("is_available", c.IsAvailable()),
	)
	result := toCarDTO(c)
	return &result, nil
}

func (s *CarService) ownedCar(ctx context.Context, ownerID, carID uuid.UUID) (*carDomain.Car, error) {
	c, err := s.repo.FindByID(ctx, carID)
	if err != nil {
		return nil, err
	}
	if !c.IsOwnedBy(ownerID) {
		return nil, apperror.NewForbiddenError("you do not own this car")
	}
	return c, nil
}

func (r AddCarRequest) toListing() carDomain.Listing {
	return carDomain.Listing{
		Brand:            r.Brand,
		Model:            r.Model,
		Year:             r.Year,
		Category:         r.Category,
		Location:         r.Location,
		Description:      r.Description,
		PricePerDayCents: r.PricePerDayCents,
		Transmission:     r.Transmission,
		FuelType:         r.FuelType,
		SeatingCapacity:  r.SeatingCapacity,
	}
}

func toCarDTO(c *carDomain.Car) CarDTO {
	l := c.Listing()
	return CarDTO{
		ID:               c.ID(),
		OwnerID:          c.OwnerID(),
		Brand:            l.Brand,
		Model:            l.Model,
		Year:             l.Year,
		Category:         l.Category,
		Image:            l.ImageURL,
		Location:         l.Location,
		Description:      l.Description,
		PricePerDayCents: l.PricePerDayCents,
		Transmission:     l.Transmission,
		FuelType:         l.FuelType,
		SeatingCapacity:  l.SeatingCapacity,
		IsAvailable:      c.IsAvailable(),
		CreatedAt:        c.CreatedAt(),
		UpdatedAt:        c.UpdatedAt(),
	}
}

func toCarDTOs(cars []*carDomain.Car) []CarDTO {
	dtos := make([]CarDTO, len(cars))
	for i, c := range cars {
		dtos[i] = toCarDTO(c)
	}
	return dtos
}
