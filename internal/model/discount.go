package model

import "time"

// DiscountCode is a single-use percentage discount issued to one passenger.
// The validity window is inclusive on both ends and compared by calendar
// date in UTC.
type DiscountCode struct {
	ID          uint64     `db:"id" json:"id"`
	Code        string     `db:"code" json:"code"`
	PassengerID uint64     `db:"passenger_id" json:"passenger_id"`
	Percentage  int        `db:"percentage" json:"percentage"`
	StartDate   time.Time  `db:"start_date" json:"start_date"`
	EndDate     time.Time  `db:"end_date" json:"end_date"`
	UsedAt      *time.Time `db:"used_at" json:"used_at,omitempty"`
}

// UsableOn reports whether the code is unused and now falls inside its
// validity window.
func (d DiscountCode) UsableOn(now time.Time) bool {
	if d.UsedAt != nil {
		return false
	}
	if d.Percentage <= 0 || d.Percentage > 100 {
		return false
	}
	today := dateOf(now)
	return !today.Before(dateOf(d.StartDate)) && !today.After(dateOf(d.EndDate))
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
