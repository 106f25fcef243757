package get_available_slots

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/helixcare/Resido-AmenityService/internal/api/handlers"
	getAvailableSlots "github.com/helixcare/Resido-AmenityService/internal/usecase/get_available_slots"
)

const (
	msgInvalidQuery    = "некорректные параметры запроса"
	msgAmenityNotFound = "amenity не найден"
)

type Handler struct {
	useCase GetAvailableSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/amenities/{amenityId}/available-slots
// Query params: date (YYYY-MM-DD) или fromDate+toDate; опционально
// startTime, endTime (HH:MM), excludeFullyBooked (true/false)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	amenityID := vars["amenityId"]

	query := r.URL.Query()
	params := QueryParams{
		Date:               query.Get("date"),
		FromDate:           query.Get("fromDate"),
		ToDate:             query.Get("toDate"),
		StartTime:          query.Get("startTime"),
		EndTime:            query.Get("endTime"),
		ExcludeFullyBooked: query.Get("excludeFullyBooked") == "true",
	}

	useCaseReq, err := params.ToUseCaseRequest(amenityID)
	if err != nil {
		h.logger.Warn("GET /amenities/{id}/available-slots - Invalid query: amenity_id=%s, error=%v", amenityID, err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /amenities/{id}/available-slots - Invalid input: amenity_id=%s, error=%v", amenityID, err)
			handlers.RespondBadRequest(w, msgInvalidQuery)

		case errors.Is(err, getAvailableSlots.ErrAmenityNotFound):
			h.logger.Warn("GET /amenities/{id}/available-slots - Amenity not found: amenity_id=%s", amenityID)
			handlers.RespondNotFound(w, msgAmenityNotFound)

		default:
			h.logger.Error("GET /amenities/{id}/available-slots - Failed to get slots: amenity_id=%s, error=%v",
				amenityID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	response := FromUseCaseResponse(result)

	h.logger.Info("GET /amenities/{id}/available-slots - Found %d slots: amenity_id=%s",
		len(response.Slots), amenityID)
	handlers.RespondJSON(w, http.StatusOK, response)
}
