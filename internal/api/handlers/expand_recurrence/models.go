package expand_recurrence

import (
	"github.com/helixcare/Resido-AmenityService/internal/domain"
	expandRecurrence "github.com/helixcare/Resido-AmenityService/internal/usecase/expand_recurrence"
)

// OccurrenceView созданный инстанс серии в HTTP ответе
type OccurrenceView struct {
	ID                 string `json:"id"`
	DisplayID          string `json:"displayId"`
	BookingDate        string `json:"bookingDate"`
	StartTime          string `json:"startTime"`
	EndTime            string `json:"endTime"`
	RecurrenceSequence int    `json:"recurrenceSequence"`
}

// ExpandRecurrenceResponse HTTP response model
type ExpandRecurrenceResponse struct {
	ParentBookingID string           `json:"parentBookingId"`
	Created         []OccurrenceView `json:"created"`
	Skipped         []string         `json:"skipped,omitempty"`
	Kept            []string         `json:"kept,omitempty"`
	Errors          []string         `json:"errors,omitempty"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP модель
func FromUseCaseResponse(resp *expandRecurrence.Response) *ExpandRecurrenceResponse {
	out := &ExpandRecurrenceResponse{
		ParentBookingID: resp.ParentBookingID,
		Created:         make([]OccurrenceView, 0, len(resp.Created)),
		Errors:          resp.Errors,
	}

	for _, c := range resp.Created {
		out.Created = append(out.Created, OccurrenceView{
			ID:                 c.ID,
			DisplayID:          c.DisplayID,
			BookingDate:        c.BookingDate.Format(domain.DateFormat),
			StartTime:          string(c.StartTime),
			EndTime:            string(c.EndTime),
			RecurrenceSequence: c.RecurrenceSequence,
		})
	}
	for _, d := range resp.Skipped {
		out.Skipped = append(out.Skipped, d.Format(domain.DateFormat))
	}
	for _, d := range resp.Kept {
		out.Kept = append(out.Kept, d.Format(domain.DateFormat))
	}

	return out
}
