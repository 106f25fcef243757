package reject_booking

import (
	"github.com/helixcare/Resido-AmenityService/internal/service/bookings/models"
)

// RejectBookingRequest HTTP request model
type RejectBookingRequest struct {
	RejectionReason  string  `json:"rejectionReason"`
	RejectionRemarks *string `json:"rejectionRemarks,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *RejectBookingRequest) ToServiceRequest() *models.RejectBookingRequest {
	return &models.RejectBookingRequest{
		RejectionReason:  r.RejectionReason,
		RejectionRemarks: r.RejectionRemarks,
	}
}
