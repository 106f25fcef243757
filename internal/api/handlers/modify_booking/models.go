package modify_booking

import (
	"fmt"
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/internal/service/bookings/models"
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// ModifyBookingRequest HTTP request model
// Неуказанные поля сохраняют текущие значения
type ModifyBookingRequest struct {
	BookingDate *string `json:"bookingDate,omitempty"` // "2025-10-15"
	StartTime   *string `json:"startTime,omitempty"`   // "10:00"
	EndTime     *string `json:"endTime,omitempty"`     // "11:00"
	Notes       *string `json:"notes,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *ModifyBookingRequest) ToServiceRequest(tenantID string) (*models.ModifyBookingRequest, error) {
	req := &models.ModifyBookingRequest{
		TenantID: tenantID,
		Notes:    r.Notes,
	}

	if r.BookingDate != nil {
		d, err := time.Parse(domain.DateFormat, *r.BookingDate)
		if err != nil {
			return nil, fmt.Errorf("invalid bookingDate: %w", err)
		}
		req.BookingDate = &d
	}
	if r.StartTime != nil {
		ts, err := types.NewTimeStringFromString(*r.StartTime)
		if err != nil {
			return nil, fmt.Errorf("invalid startTime: %w", err)
		}
		req.StartTime = &ts
	}
	if r.EndTime != nil {
		ts, err := types.NewTimeStringFromString(*r.EndTime)
		if err != nil {
			return nil, fmt.Errorf("invalid endTime: %w", err)
		}
		req.EndTime = &ts
	}

	return req, nil
}
