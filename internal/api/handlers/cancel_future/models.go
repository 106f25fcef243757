package cancel_future

import (
	"fmt"
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/internal/service/recurrence/models"
)

// CancelFutureRequest HTTP request model
type CancelFutureRequest struct {
	FromDate string `json:"fromDate"` // "2025-10-15"
	Reason   string `json:"reason,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CancelFutureRequest) ToServiceRequest() (*models.CancelFutureRequest, error) {
	fromDate, err := time.Parse(domain.DateFormat, r.FromDate)
	if err != nil {
		return nil, fmt.Errorf("invalid fromDate: %w", err)
	}

	return &models.CancelFutureRequest{
		FromDate: fromDate,
		Reason:   r.Reason,
	}, nil
}
