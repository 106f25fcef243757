package create_booking

import (
	"errors"
	"net/http"

	"github.com/helixcare/Resido-AmenityService/internal/api/handlers"
	expandRecurrence "github.com/helixcare/Resido-AmenityService/internal/usecase/expand_recurrence"
	placeBooking "github.com/helixcare/Resido-AmenityService/internal/usecase/place_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidInput       = "некорректные данные бронирования"
	msgAmenityNotFound    = "amenity не найден"
	msgOutsideWindow      = "запрошенный интервал вне рабочего окна amenity"
	msgHoliday            = "выбранная дата является праздником"
	msgBlackout           = "выбранный интервал попадает в период блокировки"
	msgSlotUnavailable    = "нет доступных слотов для выбранного интервала"
	msgSlotContention     = "слот только что заняли, попробуйте еще раз"
	msgInvalidSlotID      = "указанный слот не соответствует выбранному интервалу"
	msgInvalidRule        = "некорректное правило повторения"
)

type Handler struct {
	placeUseCase  PlaceBookingUseCase
	expandUseCase ExpandRecurrenceUseCase
	logger        Logger
}

func NewHandler(placeUseCase PlaceBookingUseCase, expandUseCase ExpandRecurrenceUseCase, logger Logger) *Handler {
	return &Handler{
		placeUseCase:  placeUseCase,
		expandUseCase: expandUseCase,
		logger:        logger,
	}
}

// Handle POST /api/v1/bookings
// Для повторяющихся запросов после размещения родителя вызывается
// материализация серии; ошибки отдельных вхождений не откатывают родителя
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInput)
		return
	}

	placed, err := h.placeUseCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, placeBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: tenant_id=%s, amenity_id=%s, error=%v",
				req.TenantID, req.AmenityID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		case errors.Is(err, placeBooking.ErrAmenityNotFound):
			h.logger.Warn("POST /bookings - Amenity not found: amenity_id=%s", req.AmenityID)
			handlers.RespondNotFound(w, msgAmenityNotFound)

		case errors.Is(err, placeBooking.ErrOutsideOperatingWindow):
			h.logger.Warn("POST /bookings - Outside operating window: tenant_id=%s, amenity_id=%s",
				req.TenantID, req.AmenityID)
			handlers.RespondBadRequest(w, msgOutsideWindow)

		case errors.Is(err, placeBooking.ErrHolidayConflict):
			h.logger.Warn("POST /bookings - Holiday conflict: tenant_id=%s, amenity_id=%s, date=%s",
				req.TenantID, req.AmenityID, req.BookingDate)
			handlers.RespondBadRequest(w, msgHoliday)

		case errors.Is(err, placeBooking.ErrBlackoutConflict):
			h.logger.Warn("POST /bookings - Blackout conflict: tenant_id=%s, amenity_id=%s, date=%s",
				req.TenantID, req.AmenityID, req.BookingDate)
			handlers.RespondError(w, http.StatusConflict, msgBlackout)

		case errors.Is(err, placeBooking.ErrSlotUnavailable):
			h.logger.Warn("POST /bookings - Slot unavailable: tenant_id=%s, amenity_id=%s, date=%s",
				req.TenantID, req.AmenityID, req.BookingDate)
			handlers.RespondError(w, http.StatusConflict, msgSlotUnavailable)

		case errors.Is(err, placeBooking.ErrSlotContention):
			h.logger.Warn("POST /bookings - Slot contention: tenant_id=%s, amenity_id=%s",
				req.TenantID, req.AmenityID)
			handlers.RespondError(w, http.StatusConflict, msgSlotContention)

		case errors.Is(err, placeBooking.ErrInvalidSlotID):
			h.logger.Warn("POST /bookings - Invalid slot id: tenant_id=%s, amenity_id=%s",
				req.TenantID, req.AmenityID)
			handlers.RespondBadRequest(w, msgInvalidSlotID)

		case errors.Is(err, placeBooking.ErrRuleInvalid):
			h.logger.Warn("POST /bookings - Invalid recurrence rule: tenant_id=%s, error=%v",
				req.TenantID, err)
			handlers.RespondBadRequest(w, msgInvalidRule)

		default:
			h.logger.Error("POST /bookings - Failed to place booking: tenant_id=%s, amenity_id=%s, error=%v",
				req.TenantID, req.AmenityID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	// Материализация серии для повторяющегося бронирования
	var expanded *expandRecurrence.Response
	if placed.IsRecurring {
		expanded, err = h.expandUseCase.Execute(r.Context(), &expandRecurrence.Request{
			ParentBookingID: placed.ID,
		})
		if err != nil {
			// Родитель уже размещен; отдаем его с ошибкой материализации
			h.logger.Error("POST /bookings - Failed to expand recurrence: parent_id=%s, error=%v",
				placed.ID, err)
			expanded = &expandRecurrence.Response{
				ParentBookingID: placed.ID,
				Errors:          []string{"recurrence expansion failed"},
			}
		}
	}

	response := FromUseCaseResponse(placed, expanded)

	h.logger.Info("POST /bookings - Booking created: booking_id=%s, tenant_id=%s, amenity_id=%s, recurring=%t",
		placed.ID, req.TenantID, req.AmenityID, placed.IsRecurring)
	handlers.RespondJSON(w, http.StatusCreated, response)
}
