package generate_slots

import (
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	generateSlots "github.com/helixcare/Resido-AmenityService/internal/usecase/generate_slots"
)

// GenerateSlotsRequest HTTP request model
type GenerateSlotsRequest struct {
	FromDate        string `json:"fromDate"`         // "2025-10-01"
	ToDate          string `json:"toDate,omitempty"` // пусто = горизонт по умолчанию
	IntervalMinutes int    `json:"intervalMinutes,omitempty"`
	Capacity        int    `json:"capacity,omitempty"`
	DeleteExisting  bool   `json:"deleteExisting,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP request в модель use case
func (r *GenerateSlotsRequest) ToUseCaseRequest(amenityID string) (*generateSlots.Request, error) {
	from, err := time.Parse(domain.DateFormat, r.FromDate)
	if err != nil {
		return nil, err
	}
	var to time.Time
	if r.ToDate != "" {
		to, err = time.Parse(domain.DateFormat, r.ToDate)
		if err != nil {
			return nil, err
		}
	}

	return &generateSlots.Request{
		AmenityID:       amenityID,
		FromDate:        from,
		ToDate:          to,
		IntervalMinutes: r.IntervalMinutes,
		Capacity:        r.Capacity,
		DeleteExisting:  r.DeleteExisting,
	}, nil
}

// SlotView слот в HTTP ответе
type SlotView struct {
	ID          string `json:"id"`
	DisplayID   string `json:"displayId"`
	SlotDate    string `json:"slotDate"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsAvailable bool   `json:"isAvailable"`
}

// GenerateSlotsResponse HTTP response model
type GenerateSlotsResponse struct {
	AmenityID string     `json:"amenityId"`
	FromDate  string     `json:"fromDate"`
	ToDate    string     `json:"toDate"`
	Created   []SlotView `json:"created"`
	Updated   []SlotView `json:"updated"`
	Errors    []string   `json:"errors,omitempty"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP модель
func FromUseCaseResponse(resp *generateSlots.Response) *GenerateSlotsResponse {
	out := &GenerateSlotsResponse{
		AmenityID: resp.AmenityID,
		FromDate:  resp.FromDate.Format(domain.DateFormat),
		ToDate:    resp.ToDate.Format(domain.DateFormat),
		Created:   make([]SlotView, 0, len(resp.Created)),
		Updated:   make([]SlotView, 0, len(resp.Updated)),
		Errors:    resp.Errors,
	}

	for _, s := range resp.Created {
		out.Created = append(out.Created, fromSlotView(s))
	}
	for _, s := range resp.Updated {
		out.Updated = append(out.Updated, fromSlotView(s))
	}

	return out
}

func fromSlotView(s generateSlots.SlotView) SlotView {
	return SlotView{
		ID:          s.ID,
		DisplayID:   s.DisplayID,
		SlotDate:    s.SlotDate.Format(domain.DateFormat),
		StartTime:   string(s.StartTime),
		EndTime:     string(s.EndTime),
		IsAvailable: s.IsAvailable,
	}
}
