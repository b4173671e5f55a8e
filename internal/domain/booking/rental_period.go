package booking

import (
	"time"

	"github.com/rentwheel/service-rental/internal/common/apperror"
)

// BillingDay is the unit a rental is charged by.
const BillingDay = 24 * time.Hour

// RentalPeriod is the half-open interval [Pickup, Return) a car is rented for.
type RentalPeriod struct {
	Pickup time.Time `json:"pickup_date"`
	Return time.Time `json:"return_date"`
}

// NewRentalPeriod validates that the return instant is strictly after pickup.
func NewRentalPeriod(pickup, ret time.Time) (RentalPeriod, error) {
	if !ret.After(pickup) {
		return RentalPeriod{}, apperror.NewInvalidRangeError("return date must be after pickup date")
	}
	return RentalPeriod{Pickup: pickup.UTC(), Return: ret.UTC()}, nil
}

// BillableDays returns the number of started days in the period. It is zero
// or negative only for an inverted period. Whole seconds are counted from
// Unix times because time.Duration saturates near 292 years.
func (p RentalPeriod) BillableDays() int64 {
	secs := p.Return.Unix() - p.Pickup.Unix()
	nanos := p.Return.Nanosecond() - p.Pickup.Nanosecond()
	if nanos < 0 {
		secs--
		nanos += int(time.Second)
	}

	const daySecs = int64(BillingDay / time.Second)
	days := secs / daySecs
	if secs%daySecs > 0 || (secs%daySecs == 0 && secs >= 0 && nanos > 0) {
		days++
	}
	return days
}

// Overlaps reports whether the two half-open periods share any instant.
func (p RentalPeriod) Overlaps(other RentalPeriod) bool {
	return p.Pickup.Before(other.Return) && p.Return.After(other.Pickup)
}
