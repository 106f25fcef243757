package modify_booking

import (
	"context"

	"github.com/helixcare/Resido-AmenityService/internal/service/bookings/models"
)

type BookingService interface {
	Modify(ctx context.Context, id string, req *models.ModifyBookingRequest) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
