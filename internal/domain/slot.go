package domain

import (
	"time"

	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// Slot represents a fixed-length bookable time window on a given date
// with a concurrency capacity.
type Slot struct {
	ID                    string
	DisplayID             string
	AmenityID             string
	SlotDate              time.Time
	SlotStartTime         types.TimeString
	SlotEndTime           types.TimeString
	SlotDurationMinutes   int
	MaxConcurrentBookings int
	TotalBookings         int
	IsAvailable           bool
	Active                bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsFullyBooked returns true if the slot has no remaining capacity.
func (s *Slot) IsFullyBooked() bool {
	return s.TotalBookings >= s.MaxConcurrentBookings
}

// RemainingCapacity returns the number of bookings the slot can still admit.
func (s *Slot) RemainingCapacity() int {
	remaining := s.MaxConcurrentBookings - s.TotalBookings
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Overlaps reports whether [start, end] intersects the slot's time range.
// Boundary-touching ranges do not overlap.
func (s *Slot) Overlaps(start, end types.TimeString) bool {
	return s.SlotStartTime.IsBefore(end) && start.IsBefore(s.SlotEndTime)
}

// SlotFilter фильтр выборки слотов
type SlotFilter struct {
	AmenityID          string
	SlotDate           *time.Time // конкретная дата
	FromDate           *time.Time // либо диапазон
	ToDate             *time.Time
	StartTime          *types.TimeString // slot_start_time >= StartTime
	EndTime            *types.TimeString // slot_end_time <= EndTime
	ExcludeFullyBooked bool
}
