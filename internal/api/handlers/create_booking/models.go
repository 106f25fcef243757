package create_booking

import (
	"fmt"
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	expandRecurrence "github.com/helixcare/Resido-AmenityService/internal/usecase/expand_recurrence"
	placeBooking "github.com/helixcare/Resido-AmenityService/internal/usecase/place_booking"
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// RecurrenceRequest правило повторения в HTTP запросе
type RecurrenceRequest struct {
	Frequency   string   `json:"frequency"` // weekly | biweekly | monthly | custom
	Interval    int      `json:"interval,omitempty"`
	DaysOfWeek  []string `json:"daysOfWeek,omitempty"` // ["monday", "friday"]
	DayOfMonth  *int     `json:"dayOfMonth,omitempty"`
	EndType     string   `json:"endType"`           // on_date | after_occurrences
	EndDate     *string  `json:"endDate,omitempty"` // "2025-12-31"
	Occurrences *int     `json:"occurrences,omitempty"`
}

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	AmenityID       string             `json:"amenityId"`
	TenantID        string             `json:"tenantId"`
	BookingDate     string             `json:"bookingDate"` // "2025-10-15"
	StartTime       string             `json:"startTime"`   // "10:00"
	EndTime         string             `json:"endTime"`     // "11:00"
	SelectedSlotIDs []string           `json:"selectedSlotIds,omitempty"`
	Notes           *string            `json:"notes,omitempty"`
	Recurrence      *RecurrenceRequest `json:"recurrence,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP request в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest() (*placeBooking.Request, error) {
	bookingDate, err := time.Parse(domain.DateFormat, r.BookingDate)
	if err != nil {
		return nil, fmt.Errorf("invalid bookingDate: %w", err)
	}
	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid startTime: %w", err)
	}
	endTime, err := types.NewTimeStringFromString(r.EndTime)
	if err != nil {
		return nil, fmt.Errorf("invalid endTime: %w", err)
	}

	req := &placeBooking.Request{
		AmenityID:       r.AmenityID,
		TenantID:        r.TenantID,
		BookingDate:     bookingDate,
		StartTime:       startTime,
		EndTime:         endTime,
		SelectedSlotIDs: r.SelectedSlotIDs,
		Notes:           r.Notes,
	}

	if r.Recurrence != nil {
		req.IsRecurring = true

		frequency := domain.RecurringFrequency(r.Recurrence.Frequency)
		req.RepeatFrequency = &frequency
		req.RepeatInterval = r.Recurrence.Interval
		req.RepeatOnDaysOfWeek = r.Recurrence.DaysOfWeek
		req.RepeatOnDayOfMonth = r.Recurrence.DayOfMonth

		endType := domain.RecurrenceEndType(r.Recurrence.EndType)
		req.RecurrenceEndType = &endType
		req.RecurrenceOccurrences = r.Recurrence.Occurrences

		if r.Recurrence.EndDate != nil {
			endDate, err := time.Parse(domain.DateFormat, *r.Recurrence.EndDate)
			if err != nil {
				return nil, fmt.Errorf("invalid recurrence endDate: %w", err)
			}
			req.RecurrenceEndDate = &endDate
		}
	}

	return req, nil
}

// BookingView бронирование в HTTP ответе
type BookingView struct {
	ID              string   `json:"id"`
	DisplayID       string   `json:"displayId"`
	AmenityID       string   `json:"amenityId"`
	TenantID        string   `json:"tenantId"`
	BookingDate     string   `json:"bookingDate"`
	StartTime       string   `json:"startTime"`
	EndTime         string   `json:"endTime"`
	Status          string   `json:"status"`
	SelectedSlotIDs []string `json:"selectedSlotIds"`
	Notes           *string  `json:"notes,omitempty"`
	IsRecurring     bool     `json:"isRecurring"`
	RequestedOn     string   `json:"requestedOn"`
}

// OccurrenceView созданный инстанс серии в HTTP ответе
type OccurrenceView struct {
	ID                 string `json:"id"`
	DisplayID          string `json:"displayId"`
	BookingDate        string `json:"bookingDate"`
	StartTime          string `json:"startTime"`
	EndTime            string `json:"endTime"`
	RecurrenceSequence int    `json:"recurrenceSequence"`
}

// ExpansionView результат материализации серии в HTTP ответе
type ExpansionView struct {
	Created []OccurrenceView `json:"created"`
	Skipped []string         `json:"skipped,omitempty"`
	Errors  []string         `json:"errors,omitempty"`
}

// CreateBookingResponse HTTP response model
type CreateBookingResponse struct {
	Booking   BookingView    `json:"booking"`
	Expansion *ExpansionView `json:"expansion,omitempty"`
}

// FromUseCaseResponse конвертирует ответы use case в HTTP модель
func FromUseCaseResponse(placed *placeBooking.Response, expanded *expandRecurrence.Response) *CreateBookingResponse {
	resp := &CreateBookingResponse{
		Booking: BookingView{
			ID:              placed.ID,
			DisplayID:       placed.DisplayID,
			AmenityID:       placed.AmenityID,
			TenantID:        placed.TenantID,
			BookingDate:     placed.BookingDate.Format(domain.DateFormat),
			StartTime:       string(placed.StartTime),
			EndTime:         string(placed.EndTime),
			Status:          placed.Status,
			SelectedSlotIDs: placed.SelectedSlotIDs,
			Notes:           placed.Notes,
			IsRecurring:     placed.IsRecurring,
			RequestedOn:     placed.RequestedOn.Format(time.RFC3339),
		},
	}

	if expanded != nil {
		expansion := &ExpansionView{
			Created: make([]OccurrenceView, 0, len(expanded.Created)),
			Errors:  expanded.Errors,
		}
		for _, c := range expanded.Created {
			expansion.Created = append(expansion.Created, OccurrenceView{
				ID:                 c.ID,
				DisplayID:          c.DisplayID,
				BookingDate:        c.BookingDate.Format(domain.DateFormat),
				StartTime:          string(c.StartTime),
				EndTime:            string(c.EndTime),
				RecurrenceSequence: c.RecurrenceSequence,
			})
		}
		for _, d := range expanded.Skipped {
			expansion.Skipped = append(expansion.Skipped, d.Format(domain.DateFormat))
		}
		resp.Expansion = expansion
	}

	return resp
}
