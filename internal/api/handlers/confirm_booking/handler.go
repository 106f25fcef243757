package confirm_booking

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/helixcare/Resido-AmenityService/internal/api/handlers"
	"github.com/helixcare/Resido-AmenityService/internal/service/bookings"
)

const (
	msgNotFound       = "бронирование не найдено"
	msgCannotConfirm  = "бронирование не может быть подтверждено"
	msgSlotContention = "конкурентное изменение, попробуйте еще раз"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/confirm
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID := vars["bookingId"]

	booking, err := h.service.Confirm(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/confirm - Booking not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrIllegalStateTransition):
			h.logger.Warn("POST /bookings/{id}/confirm - Cannot confirm: booking_id=%s", bookingID)
			handlers.RespondBadRequest(w, msgCannotConfirm)

		case errors.Is(err, bookings.ErrSlotContention):
			h.logger.Warn("POST /bookings/{id}/confirm - Slot contention: booking_id=%s", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgSlotContention)

		default:
			h.logger.Error("POST /bookings/{id}/confirm - Failed to confirm booking: booking_id=%s, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/confirm - Booking confirmed successfully: booking_id=%s", bookingID)
	handlers.RespondJSON(w, http.StatusOK, booking)
}
