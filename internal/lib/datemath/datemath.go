// Package datemath derives subscription expiry dates and temporal status
// from a start date and a duration in whole months. All functions are pure:
// status is recomputed on every read because "today" moves on its own.
package datemath

import "time"

// Status is the temporal state of a subscription relative to a given day.
type Status string

const (
	StatusActive       Status = "active"
	StatusExpiringSoon Status = "expiringSoon"
	StatusExpired      Status = "expired"
)

// expiringSoonWindow is how far ahead of expiry a subscription is reported
// as expiringSoon, inclusive on both ends.
const expiringSoonWindow = 7 * 24 * time.Hour

// ExpiryDate advances the start date by the given number of calendar months.
// Month-end overflow follows ordinary calendar carry (Jan 31 + 1 month lands
// in early March); historical status computations depend on this rollover,
// so it must not be normalized.
func ExpiryDate(start time.Time, months int) time.Time {
	return start.AddDate(0, months, 0)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SubscriptionStatus classifies a subscription window against today.
// Today is truncated to start of day before comparison; the expiry date
// keeps the start date's time of day.
func SubscriptionStatus(start time.Time, months int, today time.Time) Status {
	expiry := ExpiryDate(start, months)
	day := StartOfDay(today)

	if expiry.Before(day) {
		return StatusExpired
	}
	if !expiry.After(day.Add(expiringSoonWindow)) {
		return StatusExpiringSoon
	}
	return StatusActive
}
