package get_available_slots

import (
	"fmt"
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	getAvailableSlots "github.com/helixcare/Resido-AmenityService/internal/usecase/get_available_slots"
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// QueryParams параметры запроса доступных слотов
type QueryParams struct {
	Date               string // YYYY-MM-DD, взаимоисключающе с fromDate/toDate
	FromDate           string
	ToDate             string
	StartTime          string // HH:MM
	EndTime            string // HH:MM
	ExcludeFullyBooked bool
}

// ToUseCaseRequest создает запрос use case из query параметров
func (q *QueryParams) ToUseCaseRequest(amenityID string) (*getAvailableSlots.Request, error) {
	req := &getAvailableSlots.Request{
		AmenityID:          amenityID,
		ExcludeFullyBooked: q.ExcludeFullyBooked,
	}

	if q.Date != "" {
		d, err := time.Parse(domain.DateFormat, q.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date: %w", err)
		}
		req.Date = &d
	}
	if q.FromDate != "" {
		d, err := time.Parse(domain.DateFormat, q.FromDate)
		if err != nil {
			return nil, fmt.Errorf("invalid fromDate: %w", err)
		}
		req.FromDate = &d
	}
	if q.ToDate != "" {
		d, err := time.Parse(domain.DateFormat, q.ToDate)
		if err != nil {
			return nil, fmt.Errorf("invalid toDate: %w", err)
		}
		req.ToDate = &d
	}
	if q.StartTime != "" {
		ts, err := types.NewTimeStringFromString(q.StartTime)
		if err != nil {
			return nil, fmt.Errorf("invalid startTime: %w", err)
		}
		req.StartTime = &ts
	}
	if q.EndTime != "" {
		ts, err := types.NewTimeStringFromString(q.EndTime)
		if err != nil {
			return nil, fmt.Errorf("invalid endTime: %w", err)
		}
		req.EndTime = &ts
	}

	return req, nil
}

// AvailableSlot модель доступного слота
type AvailableSlot struct {
	ID                string `json:"id"`
	DisplayID         string `json:"displayId"`
	SlotDate          string `json:"slotDate"`
	StartTime         string `json:"startTime"`
	EndTime           string `json:"endTime"`
	DurationMinutes   int    `json:"durationMinutes"`
	TotalSpots        int    `json:"totalSpots"`
	BookedSpots       int    `json:"bookedSpots"`
	RemainingCapacity int    `json:"remainingCapacity"`
}

// AvailableSlotsResponse HTTP response model
type AvailableSlotsResponse struct {
	AmenityID string          `json:"amenityId"`
	Slots     []AvailableSlot `json:"slots"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *getAvailableSlots.Response) *AvailableSlotsResponse {
	slots := make([]AvailableSlot, len(resp.Slots))
	for i, slot := range resp.Slots {
		slots[i] = AvailableSlot{
			ID:                slot.ID,
			DisplayID:         slot.DisplayID,
			SlotDate:          slot.SlotDate.Format(domain.DateFormat),
			StartTime:         string(slot.StartTime),
			EndTime:           string(slot.EndTime),
			DurationMinutes:   slot.DurationMinutes,
			TotalSpots:        slot.MaxConcurrentBookings,
			BookedSpots:       slot.TotalBookings,
			RemainingCapacity: slot.RemainingCapacity,
		}
	}

	return &AvailableSlotsResponse{
		AmenityID: resp.AmenityID,
		Slots:     slots,
	}
}
