package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	amenityRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/amenity"
)

// UseCase use case получения доступных слотов amenity
type UseCase struct {
	amenityRepo  AmenityRepository
	slotRepo     SlotRepository
	blackoutRepo BlackoutRepository
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	amenityRepo AmenityRepository,
	slotRepo SlotRepository,
	blackoutRepo BlackoutRepository,
	logger Logger,
) *UseCase {
	return &UseCase{
		amenityRepo:  amenityRepo,
		slotRepo:     slotRepo,
		blackoutRepo: blackoutRepo,
		logger:       logger,
	}
}

// Execute возвращает доступные слоты amenity.
// Слот доступен, если is_available и active, и его не накрывает текущий
// активный blackout-период (проверяется повторно на чтении - blackout мог
// появиться после генерации).
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем amenity
	amenity, err := uc.amenityRepo.GetByID(ctx, req.AmenityID)
	if err != nil {
		if errors.Is(err, amenityRepo.ErrAmenityNotFound) {
			uc.logger.Warn("GetAvailableSlots: amenity id=%s not found", req.AmenityID)
			return nil, ErrAmenityNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get amenity id=%s: %v", req.AmenityID, err)
		return nil, fmt.Errorf("%w: failed to get amenity: %v", ErrInternal, err)
	}
	if !amenity.Active {
		uc.logger.Warn("GetAvailableSlots: amenity id=%s is inactive", req.AmenityID)
		return nil, ErrAmenityNotFound
	}

	// 3. Границы выборки
	from, to := req.FromDate, req.ToDate
	if req.Date != nil {
		from, to = req.Date, req.Date
	}

	// 4. Слоты по фильтру (репозиторий отдает is_available AND active)
	filter := domain.SlotFilter{
		AmenityID:          req.AmenityID,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		ExcludeFullyBooked: req.ExcludeFullyBooked,
	}
	if req.Date != nil {
		filter.SlotDate = req.Date
	} else {
		filter.FromDate = from
		filter.ToDate = to
	}

	slots, err := uc.slotRepo.ListWithFilter(ctx, filter)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list slots: %v", err)
		return nil, fmt.Errorf("%w: failed to list slots: %v", ErrInternal, err)
	}

	// 5. Текущие blackout-периоды диапазона
	blackouts, err := uc.blackoutRepo.ListActiveInRange(ctx, req.AmenityID, *from, *to)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list blackouts: %v", err)
		return nil, fmt.Errorf("%w: failed to list blackouts: %v", ErrInternal, err)
	}

	resp := &Response{
		AmenityID: req.AmenityID,
		Slots:     make([]SlotView, 0, len(slots)),
	}

	for _, s := range slots {
		if !s.IsAvailable || !s.Active {
			continue
		}
		// Праздники закрыты для бронирования
		if amenity.IsHoliday(s.SlotDate) {
			continue
		}
		blocked := false
		for _, b := range blackouts {
			if b.Blocks(s.SlotDate, s.SlotStartTime, s.SlotEndTime) {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}

		resp.Slots = append(resp.Slots, SlotView{
			ID:                    s.ID,
			DisplayID:             s.DisplayID,
			SlotDate:              s.SlotDate,
			StartTime:             s.SlotStartTime,
			EndTime:               s.SlotEndTime,
			DurationMinutes:       s.SlotDurationMinutes,
			MaxConcurrentBookings: s.MaxConcurrentBookings,
			TotalBookings:         s.TotalBookings,
			RemainingCapacity:     s.RemainingCapacity(),
		})
	}

	uc.logger.Info("GetAvailableSlots: amenity=%s returned %d slots", req.AmenityID, len(resp.Slots))

	return resp, nil
}
