package promotions

import (
	"storefront/internal/catalog/types"
	"time"
)

// Status is where a promotion sits relative to a point in time.
type Status string

const (
	StatusCurrent  Status = "current"
	StatusUpcoming Status = "upcoming"
	StatusExpired  Status = "expired"
	StatusUnknown  Status = "unknown"
)

// IsActive reports whether now falls inside [StartDate, EndDate], both ends
// inclusive. A promotion missing either boundary is never active.
func IsActive(p types.Promotion, now time.Time) bool {
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return false
	}
	return !now.Before(p.StartDate.Time) && !now.After(p.EndDate.Time)
}

// IsActiveNow is IsActive against the wall clock.
func IsActiveNow(p types.Promotion) bool {
	return IsActive(p, time.Now())
}

// Classify places p relative to now. Statuses are exclusive; a promotion
// with only a start date that has already passed is StatusUnknown.
func Classify(p types.Promotion, now time.Time) Status {
	switch {
	case IsActive(p, now):
		return StatusCurrent
	case !p.StartDate.IsZero() && now.Before(p.StartDate.Time):
		return StatusUpcoming
	case !p.EndDate.IsZero() && now.After(p.EndDate.Time):
		return StatusExpired
	default:
		return StatusUnknown
	}
}
