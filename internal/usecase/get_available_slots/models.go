package get_available_slots

import (
	"time"

	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// Request модель запроса доступных слотов
// Указывается либо Date, либо диапазон FromDate/ToDate
type Request struct {
	AmenityID          string
	Date               *time.Time
	FromDate           *time.Time
	ToDate             *time.Time
	StartTime          *types.TimeString // slot_start_time >= StartTime
	EndTime            *types.TimeString // slot_end_time <= EndTime
	ExcludeFullyBooked bool
}

// SlotView доступный слот в ответе
type SlotView struct {
	ID                    string
	DisplayID             string
	SlotDate              time.Time
	StartTime             types.TimeString
	EndTime               types.TimeString
	DurationMinutes       int
	MaxConcurrentBookings int
	TotalBookings         int
	RemainingCapacity     int
}

// Response модель ответа со слотами, упорядоченными по (дата, время начала)
type Response struct {
	AmenityID string
	Slots     []SlotView
}
