package cancel_booking

import (
	"context"

	"github.com/helixcare/Resido-AmenityService/internal/service/bookings/models"
)

type BookingService interface {
	Cancel(ctx context.Context, id string, req *models.CancelBookingRequest) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
