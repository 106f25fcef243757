package create_booking

import (
	"context"

	expandRecurrence "github.com/helixcare/Resido-AmenityService/internal/usecase/expand_recurrence"
	placeBooking "github.com/helixcare/Resido-AmenityService/internal/usecase/place_booking"
)

type PlaceBookingUseCase interface {
	Execute(ctx context.Context, req *placeBooking.Request) (*placeBooking.Response, error)
}

type ExpandRecurrenceUseCase interface {
	Execute(ctx context.Context, req *expandRecurrence.Request) (*expandRecurrence.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
