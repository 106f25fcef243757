package create_exception

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/helixcare/Resido-AmenityService/internal/api/handlers"
	"github.com/helixcare/Resido-AmenityService/internal/service/recurrence"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgNotFound           = "бронирование не найдено"
	msgNotParent          = "бронирование не является родителем серии"
	msgExceptionConflict  = "исключение для этого вхождения уже существует"
	msgOutsideWindow      = "новый интервал вне рабочего окна amenity"
	msgHoliday            = "новая дата является праздником"
	msgBlackout           = "новый интервал попадает в период блокировки"
	msgSlotUnavailable    = "нет доступных слотов для нового интервала"
	msgSlotContention     = "конкурентное изменение, попробуйте еще раз"
)

type Handler struct {
	service RecurrenceService
	logger  Logger
}

func NewHandler(service RecurrenceService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/exceptions
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	parentID := vars["bookingId"]

	var req CreateExceptionRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/exceptions - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq, err := req.ToServiceRequest()
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/exceptions - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	exception, err := h.service.CreateException(r.Context(), parentID, serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, recurrence.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/exceptions - Invalid input: parent_id=%s, error=%v", parentID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		case errors.Is(err, recurrence.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/exceptions - Parent not found: parent_id=%s", parentID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, recurrence.ErrNotRecurrenceParent):
			h.logger.Warn("POST /bookings/{id}/exceptions - Not a recurrence parent: parent_id=%s", parentID)
			handlers.RespondBadRequest(w, msgNotParent)

		case errors.Is(err, recurrence.ErrExceptionConflict):
			h.logger.Warn("POST /bookings/{id}/exceptions - Exception conflict: parent_id=%s, date=%s",
				parentID, req.OccurrenceDate)
			handlers.RespondError(w, http.StatusConflict, msgExceptionConflict)

		case errors.Is(err, recurrence.ErrOutsideOperatingWindow):
			h.logger.Warn("POST /bookings/{id}/exceptions - Outside operating window: parent_id=%s", parentID)
			handlers.RespondBadRequest(w, msgOutsideWindow)

		case errors.Is(err, recurrence.ErrHolidayConflict):
			h.logger.Warn("POST /bookings/{id}/exceptions - Holiday conflict: parent_id=%s", parentID)
			handlers.RespondBadRequest(w, msgHoliday)

		case errors.Is(err, recurrence.ErrBlackoutConflict):
			h.logger.Warn("POST /bookings/{id}/exceptions - Blackout conflict: parent_id=%s", parentID)
			handlers.RespondError(w, http.StatusConflict, msgBlackout)

		case errors.Is(err, recurrence.ErrSlotUnavailable):
			h.logger.Warn("POST /bookings/{id}/exceptions - Slot unavailable: parent_id=%s", parentID)
			handlers.RespondError(w, http.StatusConflict, msgSlotUnavailable)

		case errors.Is(err, recurrence.ErrSlotContention):
			h.logger.Warn("POST /bookings/{id}/exceptions - Slot contention: parent_id=%s", parentID)
			handlers.RespondError(w, http.StatusConflict, msgSlotContention)

		default:
			h.logger.Error("POST /bookings/{id}/exceptions - Failed to create exception: parent_id=%s, error=%v",
				parentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/exceptions - Exception created: parent_id=%s, date=%s, type=%s",
		parentID, req.OccurrenceDate, req.ExceptionType)
	handlers.RespondJSON(w, http.StatusCreated, exception)
}
