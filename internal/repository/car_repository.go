package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentwheel/service-rental/internal/common/apperror"
	carDomain "github.com/rentwheel/service-rental/internal/domain/car"
)

// CarModel is the GORM model for the cars table. A null owner marks a
// delisted car.
type CarModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OwnerID          *uuid.UUID `gorm:"type:uuid;index"`
	Brand            string     `gorm:"type:varchar(100);not null"`
	Model            string     `gorm:"type:varchar(100);not null"`
	Year             int        `gorm:"not null"`
	Category         string     `gorm:"type:varchar(50);not null"`
	ImageURL         string     `gorm:"type:text;not null"`
	Location         string     `gorm:"type:varchar(100);not null;index"`
	Description      string     `gorm:"type:text;not null"`
	PricePerDayCents int64      `gorm:"not null"`
	Transmission     string     `gorm:"type:varchar(30);not null"`
	FuelType         string     `gorm:"type:varchar(30);not null"`
	SeatingCapacity  int        `gorm:"not null"`
	IsAvailable      bool       `gorm:"not null;default:true"`
	Version          int64      `gorm:"not null;default:1"`
	CreatedAt        time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt        time.Time  `gorm:"type:timestamptz;not null"`
}

func (CarModel) TableName() string { return "cars" }

// GormCarRepository implements CarRepository using GORM.
type GormCarRepository struct {
	db *gorm.DB
}

func NewGormCarRepository(db *gorm.DB) *GormCarRepository {
	return &GormCarRepository{db: db}
}

func (r *GormCarRepository) FindByID(ctx context.Context, id uuid.UUID) (*carDomain.Car, error) {
	var model CarModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFoundError("Car", id.String())
		}
		return nil, fmt.Errorf("failed to find car by ID: %w", err)
	}
	return toCarDomain(&model), nil
}

func (r *GormCarRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*carDomain.Car, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(ctx, r.db.Where("id IN ?", ids))
}

func (r *GormCarRepository) FindByLocationAndAvailable(ctx context.Context, location string) ([]*carDomain.Car, error) {
	return r.find(ctx, r.db.
		Where("owner_id IS NOT NULL AND is_available = ? AND location = ?", true, location).
		Order("created_at DESC"))
}

func (r *GormCarRepository) FindListed(ctx context.Context) ([]*carDomain.Car, error) {
	return r.find(ctx, r.db.
		Where("owner_id IS NOT NULL AND is_available = ?", true).
		Order("created_at DESC"))
}

func (r *GormCarRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*carDomain.Car, error) {
	return r.find(ctx, r.db.Where("owner_id = ?", ownerID).Order("created_at DESC"))
}

func (r *GormCarRepository) Save(ctx context.Context, c *carDomain.Car) error {
	if err := r.db.WithContext(ctx).Create(toCarModel(c)).Error; err != nil {
		return fmt.Errorf("failed to save car: %w", err)
	}
	return nil
}

// Update writes every column, including a null owner, when the stored
// version is the one the car was loaded with.
func (r *GormCarRepository) Update(ctx context.Context, c *carDomain.Car) error {
	model := toCarModel(c)
	previousVersion := c.Version() - 1

	result := r.db.WithContext(ctx).
		Model(&CarModel{}).
		Where("id = ? AND version = ?", model.ID, previousVersion).
		Updates(map[string]interface{}{
			"owner_id":            model.OwnerID,
			"brand":               model.Brand,
			"model":               model.Model,
			"year":                model.Year,
			"category":            model.Category,
			"image_url":           model.ImageURL,
			"location":            model.Location,
			"description":         model.Description,
			"price_per_day_cents": model.PricePerDayCents,
			"transmission":        model.Transmission,
			"fuel_type":           model.FuelType,
			"seating_capacity":    model.SeatingCapacity,
			"is_available":        model.IsAvailable,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update car: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NewConflictError("car was modified by another transaction")
	}
	return nil
}

func (r *GormCarRepository) find(ctx context.Context, q *gorm.DB) ([]*carDomain.Car, error) {
	var models []CarModel
	if err := q.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find cars: %w", err)
	}
	cars := make([]*carDomain.Car, len(models))
	for i := range models {
		cars[i] = toCarDomain(&models[i])
	}
	return cars, nil
}

// --- Conversions ---

func toCarModel(c *carDomain.Car) *CarModel {
	l := c.Listing()
	return &CarModel{
		ID:               c.ID(),
		OwnerID:          c.OwnerID(),
		Brand:            l.Brand,
		Model:            l.Model,
		Year:             l.Year,
		Category:         l.Category,
		ImageURL:         l.ImageURL,
		Location:         l.Location,
		Description:      l.Description,
		PricePerDayCents: l.PricePerDayCents,
		Transmission:     l.Transmission,
		FuelType:         l.FuelType,
		SeatingCapacity:  l.SeatingCapacity,
		IsAvailable:      c.IsAvailable(),
		Version:          c.Version(),
		CreatedAt:        c.CreatedAt(),
		UpdatedAt:        c.UpdatedAt(),
	}
}

func toCarDomain(m *CarModel) *carDomain.Car {
	return carDomain.Reconstruct(
		m.ID,
		m.OwnerID,
		carDomain.Listing{
			Brand:            m.Brand,
			Model:            m.Model,
			Year:             m.Year,
			Category:         m.Category,
			ImageURL:         m.ImageURL,
			Location:         m.Location,
			Description:      m.Description,
			PricePerDayCents: m.PricePerDayCents,
			Transmission:     m.Transmission,
			FuelType:         m.FuelType,
			SeatingCapacity:  m.SeatingCapacity,
		},
		m.IsAvailable,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
