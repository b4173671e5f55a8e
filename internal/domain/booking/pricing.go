package booking

import (
	"math"

	"github.com/rentwheel/service-rental/internal/common/apperror"
)

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate returns the total price in cents for renting a car with the
	// given daily rate over the period.
	Calculate(pricePerDayCents int64, period RentalPeriod) (int64, error)
}

// DailyPricingStrategy charges the daily rate for every started day.
type DailyPricingStrategy struct{}

// NewDailyPricingStrategy creates a new DailyPricingStrategy.
func NewDailyPricingStrategy() *DailyPricingStrategy {
	return &DailyPricingStrategy{}
}

// Calculate computes pricePerDay × ceil(duration / 24h).
func (s *DailyPricingStrategy) Calculate(pricePerDayCents int64, period RentalPeriod) (int64, error) {
	if pricePerDayCents < 0 {
		return 0, apperror.NewValidationError("price per day cannot be negative")
	}
	days := period.BillableDays()
	if days <= 0 {
		return 0, apperror.NewInvalidRangeError("return date must be after pickup date")
	}
	if pricePerDayCents > 0 && days > math.MaxInt64/pricePerDayCents {
		return 0, apperror.NewValidationError("rental period is too long to price")
	}
	return pricePerDayCents * days, nil
}
