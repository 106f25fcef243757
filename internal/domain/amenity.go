package domain

import (
	"time"

	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// Amenity represents a bookable resource (pool, gym, clubhouse, parking bay).
// Owned by property administration; the booking core only reads it.
type Amenity struct {
	ID                  string
	DisplayID           string
	Name                string
	OperatingStartTime  types.TimeString
	OperatingEndTime    types.TimeString
	SlotIntervalMinutes int
	ConcurrencyCap      int
	Timezone            string // IANA name, e.g. "America/New_York"

	// Placement policy consulted by the booking coordinator
	WalkInSchedule WalkInSchedule
	Holidays       []Holiday

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location returns the amenity's operating time zone.
// Falls back to UTC when the zone is missing or unknown.
func (a *Amenity) Location() *time.Location {
	if a.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// WithinOperatingWindow reports whether [start, end] fits inside the
// amenity's daily operating hours.
func (a *Amenity) WithinOperatingWindow(start, end types.TimeString) bool {
	return !start.IsBefore(a.OperatingStartTime) && !end.IsAfter(a.OperatingEndTime)
}

// IsHoliday reports whether the date matches a configured holiday
// (month + day of month, year-independent).
func (a *Amenity) IsHoliday(date time.Time) bool {
	for _, h := range a.Holidays {
		if h.Month == date.Month() && h.Day == date.Day() {
			return true
		}
	}
	return false
}

// Holiday календарный праздник (месяц + день), в праздники бронирование закрыто
type Holiday struct {
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// WalkInWindow окно свободного посещения: amenity открыт, но не бронируется
type WalkInWindow struct {
	StartTime types.TimeString `json:"start_time"`
	EndTime   types.TimeString `json:"end_time"`
}

// WalkInSchedule расписание walk-in окон по дням недели
// Ключ - имя дня недели в нижнем регистре ("monday" ... "sunday")
type WalkInSchedule map[string]WalkInWindow

// WindowFor returns the walk-in window configured for the date's weekday.
func (s WalkInSchedule) WindowFor(date time.Time) (WalkInWindow, bool) {
	if len(s) == 0 {
		return WalkInWindow{}, false
	}
	w, ok := s[WeekdayName(date.Weekday())]
	return w, ok
}

// Intersects reports whether [start, end] overlaps the walk-in window.
// Boundary-touching ranges do not intersect.
func (w WalkInWindow) Intersects(start, end types.TimeString) bool {
	return w.StartTime.IsBefore(end) && start.IsBefore(w.EndTime)
}

// WeekdayName возвращает имя дня недели в нижнем регистре
func WeekdayName(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}

// ParseWeekday парсит имя дня недели; второй результат false при неизвестном имени
func ParseWeekday(name string) (time.Weekday, bool) {
	switch name {
	case "monday":
		return time.Monday, true
	case "tuesday":
		return time.Tuesday, true
	case "wednesday":
		return time.Wednesday, true
	case "thursday":
		return time.Thursday, true
	case "friday":
		return time.Friday, true
	case "saturday":
		return time.Saturday, true
	case "sunday":
		return time.Sunday, true
	default:
		return time.Sunday, false
	}
}
