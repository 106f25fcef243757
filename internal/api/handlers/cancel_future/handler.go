package cancel_future

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

// Handle POST /api/v1/bookings/{bookingId}/cancel-future
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	parentID := vars["bookingId"]

	var req CancelFutureRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings/{id}/cancel-future - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq, err := req.ToServiceRequest()
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/cancel-future - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.CancelFuture(r.Context(), parentID, serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, recurrence.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/cancel-future - Invalid input: parent_id=%s, error=%v", parentID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		case errors.Is(err, recurrence.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/cancel-future - Parent not found: parent_id=%s", parentID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, recurrence.ErrNotRecurrenceParent):
			h.logger.Warn("POST /bookings/{id}/cancel-future - Not a recurrence parent: parent_id=%s", parentID)
			handlers.RespondBadRequest(w, msgNotParent)

		case errors.Is(err, recurrence.ErrSlotContention):
			h.logger.Warn("POST /bookings/{id}/cancel-future - Slot contention: parent_id=%s", parentID)
			handlers.RespondError(w, http.StatusConflict, msgSlotContention)

		default:
			h.logger.Error("POST /bookings/{id}/cancel-future - Failed to cancel future occurrences: parent_id=%s, error=%v",
				parentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/cancel-future - Cancelled %d occurrences: parent_id=%s, from=%s",
		result.CancelledCount, parentID, req.FromDate)
	handlers.RespondJSON(w, http.StatusOK, result)
}
