package domain

import (
	"time"

	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// BlackoutPeriod represents a declared range during which an amenity is
// unusable. May be full-day or scoped to a time-of-day window.
type BlackoutPeriod struct {
	ID        string
	DisplayID string
	AmenityID string
	StartDate time.Time // включительно
	EndDate   time.Time // включительно
	StartTime *types.TimeString
	EndTime   *types.TimeString
	Reason    string
	CreatedBy *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsFullDay reports whether the blackout covers whole days.
// Если задана только одна из границ времени - период считается full-day
// (так вела себя исходная система, сохраняем явно).
func (b *BlackoutPeriod) IsFullDay() bool {
	return b.StartTime == nil || b.EndTime == nil
}

// CoversDate проверяет попадание даты в диапазон периода
func (b *BlackoutPeriod) CoversDate(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(b.StartDate)) && !d.After(DateOnly(b.EndDate))
}

// Blocks reports whether the blackout makes [start, end] on the given date
// unusable. A partial overlap blocks the whole range; boundary-touching
// ranges do not overlap.
func (b *BlackoutPeriod) Blocks(date time.Time, start, end types.TimeString) bool {
	if !b.Active || !b.CoversDate(date) {
		return false
	}
	if b.IsFullDay() {
		return true
	}
	return b.StartTime.IsBefore(end) && start.IsBefore(*b.EndTime)
}

// DateOnly обнуляет время, оставляя только дату (UTC)
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDate проверяет, что две даты относятся к одному дню
func SameDate(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
