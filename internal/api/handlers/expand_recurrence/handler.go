package expand_recurrence

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/helixcare/Resido-AmenityService/internal/api/handlers"
	expandRecurrence "github.com/helixcare/Resido-AmenityService/internal/usecase/expand_recurrence"
)

const (
	msgNotFound    = "бронирование не найдено"
	msgNotParent   = "бронирование не является родителем серии"
	msgInvalidRule = "некорректное правило повторения"
)

type Handler struct {
	useCase ExpandRecurrenceUseCase
	logger  Logger
}

func NewHandler(useCase ExpandRecurrenceUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/expand
// Повторная материализация идемпотентна: существующие инстансы сохраняются
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	parentID := vars["bookingId"]

	result, err := h.useCase.Execute(r.Context(), &expandRecurrence.Request{
		ParentBookingID: parentID,
	})
	if err != nil {
		switch {
		case errors.Is(err, expandRecurrence.ErrInvalidInput):
			h.logger.Warn("POST /bookings/{id}/expand - Invalid input: parent_id=%s, error=%v", parentID, err)
			handlers.RespondBadRequest(w, msgNotParent)

		case errors.Is(err, expandRecurrence.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/expand - Parent not found: parent_id=%s", parentID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, expandRecurrence.ErrNotRecurrenceParent):
			h.logger.Warn("POST /bookings/{id}/expand - Not a recurrence parent: parent_id=%s", parentID)
			handlers.RespondBadRequest(w, msgNotParent)

		case errors.Is(err, expandRecurrence.ErrRuleInvalid):
			h.logger.Warn("POST /bookings/{id}/expand - Invalid rule: parent_id=%s, error=%v", parentID, err)
			handlers.RespondBadRequest(w, msgInvalidRule)

		default:
			h.logger.Error("POST /bookings/{id}/expand - Failed to expand recurrence: parent_id=%s, error=%v",
				parentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	response := FromUseCaseResponse(result)

	h.logger.Info("POST /bookings/{id}/expand - Recurrence expanded: parent_id=%s, created=%d, skipped=%d, kept=%d",
		parentID, len(response.Created), len(response.Skipped), len(response.Kept))
	handlers.RespondJSON(w, http.StatusOK, response)
}
