package create_exception

import (
	"fmt"
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/internal/service/recurrence/models"
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// CreateExceptionRequest HTTP request model
type CreateExceptionRequest struct {
	OccurrenceDate string  `json:"occurrenceDate"` // "2025-10-15"
	ExceptionType  string  `json:"exceptionType"`  // skip | cancel | modify
	NewBookingDate *string `json:"newBookingDate,omitempty"`
	NewStartTime   *string `json:"newStartTime,omitempty"`
	NewEndTime     *string `json:"newEndTime,omitempty"`
	Reason         string  `json:"reason,omitempty"`
	ModifiedBy     *string `json:"modifiedBy,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CreateExceptionRequest) ToServiceRequest() (*models.CreateExceptionRequest, error) {
	occurrenceDate, err := time.Parse(domain.DateFormat, r.OccurrenceDate)
	if err != nil {
		return nil, fmt.Errorf("invalid occurrenceDate: %w", err)
	}

	req := &models.CreateExceptionRequest{
		OccurrenceDate: occurrenceDate,
		ExceptionType:  r.ExceptionType,
		Reason:         r.Reason,
		ModifiedBy:     r.ModifiedBy,
	}

	if r.NewBookingDate != nil {
		d, err := time.Parse(domain.DateFormat, *r.NewBookingDate)
		if err != nil {
			return nil, fmt.Errorf("invalid newBookingDate: %w", err)
		}
		req.NewBookingDate = &d
	}
	if r.NewStartTime != nil {
		ts, err := types.NewTimeStringFromString(*r.NewStartTime)
		if err != nil {
			return nil, fmt.Errorf("invalid newStartTime: %w", err)
		}
		req.NewStartTime = &ts
	}
	if r.NewEndTime != nil {
		ts, err := types.NewTimeStringFromString(*r.NewEndTime)
		if err != nil {
			return nil, fmt.Errorf("invalid newEndTime: %w", err)
		}
		req.NewEndTime = &ts
	}

	return req, nil
}
