package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/rentwheel/service-rental/internal/common/apperror"
)

// dateLayouts are tried in order. Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate reads a client supplied date-time. Malformed input is an
// invalid-argument error naming the field.
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, apperror.NewValidationError(fmt.Sprintf("%s is required", field))
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperror.NewValidationError(fmt.Sprintf("%s is not a valid date: %q", field, value))
}
