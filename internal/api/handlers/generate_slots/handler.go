package generate_slots

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/helixcare/Resido-AmenityService/internal/api/handlers"
	generateSlots "github.com/helixcare/Resido-AmenityService/internal/usecase/generate_slots"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidRange       = "некорректный диапазон генерации"
	msgAmenityNotFound    = "amenity не найден"
)

type Handler struct {
	useCase GenerateSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GenerateSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/amenities/{amenityId}/slots/generate
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	amenityID := vars["amenityId"]

	var req GenerateSlotsRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /amenities/{id}/slots/generate - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(amenityID)
	if err != nil {
		h.logger.Warn("POST /amenities/{id}/slots/generate - Failed to parse dates: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, generateSlots.ErrInvalidInput):
			h.logger.Warn("POST /amenities/{id}/slots/generate - Invalid input: amenity_id=%s, error=%v", amenityID, err)
			handlers.RespondBadRequest(w, msgInvalidRange)

		case errors.Is(err, generateSlots.ErrAmenityNotFound):
			h.logger.Warn("POST /amenities/{id}/slots/generate - Amenity not found: amenity_id=%s", amenityID)
			handlers.RespondNotFound(w, msgAmenityNotFound)

		default:
			h.logger.Error("POST /amenities/{id}/slots/generate - Failed to generate slots: amenity_id=%s, error=%v",
				amenityID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	response := FromUseCaseResponse(result)

	h.logger.Info("POST /amenities/{id}/slots/generate - Generated slots: amenity_id=%s, created=%d, updated=%d",
		amenityID, len(response.Created), len(response.Updated))
	handlers.RespondJSON(w, http.StatusOK, response)
}
