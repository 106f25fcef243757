package modify_booking

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/helixcare/Resido-AmenityService/internal/api/handlers"
	"github.com/helixcare/Resido-AmenityService/internal/api/middleware"
	"github.com/helixcare/Resido-AmenityService/internal/service/bookings"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgNotFound           = "бронирование не найдено"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgForbidden          = "доступ запрещен"
	msgCannotModify       = "бронирование не может быть изменено"
	msgAmenityNotFound    = "amenity не найден"
	msgOutsideWindow      = "новый интервал вне рабочего окна amenity"
	msgHoliday            = "новая дата является праздником"
	msgBlackout           = "новый интервал попадает в период блокировки"
	msgSlotUnavailable    = "нет доступных слотов для нового интервала"
	msgSlotContention     = "слот только что заняли, попробуйте еще раз"
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

// Handle PUT /api/v1/bookings/{bookingId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID := vars["bookingId"]

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PUT /bookings/{id} - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req ModifyBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /bookings/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq, err := req.ToServiceRequest(userID)
	if err != nil {
		h.logger.Warn("PUT /bookings/{id} - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	booking, err := h.service.Modify(r.Context(), bookingID, serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("PUT /bookings/{id} - Booking not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("PUT /bookings/{id} - Access denied: booking_id=%s, user_id=%s", bookingID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrIllegalStateTransition):
			h.logger.Warn("PUT /bookings/{id} - Cannot modify: booking_id=%s", bookingID)
			handlers.RespondBadRequest(w, msgCannotModify)

		case errors.Is(err, bookings.ErrInvalidInput):
			h.logger.Warn("PUT /bookings/{id} - Invalid input: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		case errors.Is(err, bookings.ErrAmenityNotFound):
			h.logger.Warn("PUT /bookings/{id} - Amenity not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgAmenityNotFound)

		case errors.Is(err, bookings.ErrOutsideOperatingWindow):
			h.logger.Warn("PUT /bookings/{id} - Outside operating window: booking_id=%s", bookingID)
			handlers.RespondBadRequest(w, msgOutsideWindow)

		case errors.Is(err, bookings.ErrHolidayConflict):
			h.logger.Warn("PUT /bookings/{id} - Holiday conflict: booking_id=%s", bookingID)
			handlers.RespondBadRequest(w, msgHoliday)

		case errors.Is(err, bookings.ErrBlackoutConflict):
			h.logger.Warn("PUT /bookings/{id} - Blackout conflict: booking_id=%s", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgBlackout)

		case errors.Is(err, bookings.ErrSlotUnavailable):
			h.logger.Warn("PUT /bookings/{id} - Slot unavailable: booking_id=%s", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgSlotUnavailable)

		case errors.Is(err, bookings.ErrSlotContention):
			h.logger.Warn("PUT /bookings/{id} - Slot contention: booking_id=%s", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgSlotContention)

		default:
			h.logger.Error("PUT /bookings/{id} - Failed to modify booking: booking_id=%s, error=%v",
				bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /bookings/{id} - Booking modified successfully: booking_id=%s, user_id=%s",
		bookingID, userID)
	handlers.RespondJSON(w, http.StatusOK, booking)
}
