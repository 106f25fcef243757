package generate_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/internal/infra/events"
	amenityRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/amenity"
	slotRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/slot"
)

// UseCase use case генерации слотов amenity на диапазон дат
type UseCase struct {
	amenityRepo  AmenityRepository
	slotRepo     SlotRepository
	blackoutRepo BlackoutRepository
	txManager    TransactionManager
	publisher    EventPublisher
	timeProvider TimeProvider
	logger       Logger
	horizonDays  int
}

// NewUseCase создает новый экземпляр use case.
// horizonDays - ширина диапазона, когда to_date не указан; <= 0 берет
// значение по умолчанию.
func NewUseCase(
	amenityRepo AmenityRepository,
	slotRepo SlotRepository,
	blackoutRepo BlackoutRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	horizonDays int,
	logger Logger,
) *UseCase {
	if horizonDays <= 0 {
		horizonDays = domain.DefaultSlotHorizonDays
	}
	return &UseCase{
		amenityRepo:  amenityRepo,
		slotRepo:     slotRepo,
		blackoutRepo: blackoutRepo,
		txManager:    txManager,
		publisher:    publisher,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		horizonDays:  horizonDays,
	}
}

// Execute выполняет генерацию слотов.
// Операция идемпотентна: повторный запуск с теми же параметрами не создает
// дубликатов и не трогает счетчики занятости.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// Без to_date диапазон покрывает настроенный горизонт
	if req.ToDate.IsZero() && !req.FromDate.IsZero() {
		req.ToDate = domain.DateOnly(req.FromDate).AddDate(0, 0, uc.horizonDays-1)
	}

	uc.logger.Info("GenerateSlots: amenity=%s, from=%s, to=%s, deleteExisting=%t",
		req.AmenityID, req.FromDate.Format(domain.DateFormat), req.ToDate.Format(domain.DateFormat), req.DeleteExisting)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GenerateSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем amenity
	amenity, err := uc.amenityRepo.GetByID(ctx, req.AmenityID)
	if err != nil {
		if errors.Is(err, amenityRepo.ErrAmenityNotFound) {
			uc.logger.Warn("GenerateSlots: amenity id=%s not found", req.AmenityID)
			return nil, ErrAmenityNotFound
		}
		uc.logger.Error("GenerateSlots: failed to get amenity id=%s: %v", req.AmenityID, err)
		return nil, fmt.Errorf("%w: failed to get amenity: %v", ErrInternal, err)
	}
	if !amenity.Active {
		uc.logger.Warn("GenerateSlots: amenity id=%s is inactive", req.AmenityID)
		return nil, ErrAmenityNotFound
	}

	// 3. Эффективные параметры: явные из запроса либо настройки amenity
	interval := req.IntervalMinutes
	if interval == 0 {
		interval = amenity.SlotIntervalMinutes
	}
	capacity := req.Capacity
	if capacity == 0 {
		capacity = amenity.ConcurrencyCap
	}

	from := domain.DateOnly(req.FromDate)
	to := domain.DateOnly(req.ToDate)

	resp := &Response{
		AmenityID: req.AmenityID,
		FromDate:  from,
		ToDate:    to,
		Created:   make([]SlotView, 0),
		Updated:   make([]SlotView, 0),
		Errors:    make([]string, 0),
	}

	// 4. Вся генерация в одной транзакции: blackout-набор читается один раз
	// и применяется ко всему диапазону
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 4.1. Перегенерация с удалением запрещена, если в диапазоне есть
		// слоты с бронированиями
		if req.DeleteExisting {
			booked, err := uc.slotRepo.CountBookedInRange(txCtx, req.AmenityID, from, to)
			if err != nil {
				uc.logger.Error("GenerateSlots: failed to count booked slots: %v", err)
				return fmt.Errorf("%w: failed to count booked slots: %v", ErrInternal, err)
			}
			if booked > 0 {
				uc.logger.Warn("GenerateSlots: delete rejected, %d slots in range hold bookings", booked)
				resp.Errors = append(resp.Errors,
					fmt.Sprintf("delete_existing rejected: %d slots in range have bookings", booked))
				return nil
			}

			deleted, err := uc.slotRepo.DeleteRange(txCtx, req.AmenityID, from, to)
			if err != nil {
				uc.logger.Error("GenerateSlots: failed to delete slots: %v", err)
				return fmt.Errorf("%w: failed to delete slots: %v", ErrInternal, err)
			}
			uc.logger.Info("GenerateSlots: deleted %d existing slots", deleted)
		}

		// 4.2. Активные blackout-периоды, пересекающие диапазон
		blackouts, err := uc.blackoutRepo.ListActiveInRange(txCtx, req.AmenityID, from, to)
		if err != nil {
			uc.logger.Error("GenerateSlots: failed to list blackouts: %v", err)
			return fmt.Errorf("%w: failed to list blackouts: %v", ErrInternal, err)
		}

		// 4.3. Генерация по дням; ошибка одного дня не прерывает остальные
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			if err := uc.generateDay(txCtx, amenity, day, interval, capacity, blackouts, resp); err != nil {
				uc.logger.Warn("GenerateSlots: day %s failed: %v", day.Format(domain.DateFormat), err)
				resp.Errors = append(resp.Errors,
					fmt.Sprintf("%s: %v", day.Format(domain.DateFormat), err))
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("GenerateSlots: amenity=%s created=%d updated=%d errors=%d",
		req.AmenityID, len(resp.Created), len(resp.Updated), len(resp.Errors))

	uc.publishRegenerated(ctx, resp)

	return resp, nil
}

// generateDay генерирует слоты одного дня по рабочему окну amenity
func (uc *UseCase) generateDay(
	ctx context.Context,
	amenity *domain.Amenity,
	day time.Time,
	interval, capacity int,
	blackouts []*domain.BlackoutPeriod,
	resp *Response,
) error {
	windowMinutes, err := amenity.OperatingStartTime.MinutesUntil(amenity.OperatingEndTime)
	if err != nil {
		return fmt.Errorf("invalid operating window %s-%s: %v",
			amenity.OperatingStartTime, amenity.OperatingEndTime, err)
	}
	if windowMinutes < interval {
		return fmt.Errorf("interval %dm does not fit operating window %s-%s",
			interval, amenity.OperatingStartTime, amenity.OperatingEndTime)
	}

	for cur := amenity.OperatingStartTime; ; {
		end, err := cur.AddMinutes(interval)
		if err != nil {
			return fmt.Errorf("slot end overflows day at %s", cur)
		}
		if end.IsAfter(amenity.OperatingEndTime) {
			break
		}

		blocked := false
		for _, b := range blackouts {
			if b.Blocks(day, cur, end) {
				blocked = true
				break
			}
		}

		existing, err := uc.slotRepo.GetByKey(ctx, amenity.ID, day, cur)
		switch {
		case errors.Is(err, slotRepo.ErrSlotNotFound):
			created, err := uc.slotRepo.Create(ctx, &domain.Slot{
				AmenityID:             amenity.ID,
				SlotDate:              day,
				SlotStartTime:         cur,
				SlotEndTime:           end,
				SlotDurationMinutes:   interval,
				MaxConcurrentBookings: capacity,
				TotalBookings:         0,
				IsAvailable:           !blocked,
				Active:                true,
			})
			if err != nil {
				return fmt.Errorf("create slot %s: %v", cur, err)
			}
			resp.Created = append(resp.Created, slotView(created))

		case err != nil:
			return fmt.Errorf("lookup slot %s: %v", cur, err)

		default:
			// Существующий слот: только гашение доступности при свежем
			// blackout; счетчики не трогаем
			if blocked && existing.IsAvailable {
				if err := uc.slotRepo.SetAvailability(ctx, existing.ID, false); err != nil {
					return fmt.Errorf("mark slot %s unavailable: %v", cur, err)
				}
				existing.IsAvailable = false
				resp.Updated = append(resp.Updated, slotView(existing))
			}
		}

		cur = end
	}

	return nil
}

// publishRegenerated отправляет slots.regenerated; ошибки публикации только
// логируются
func (uc *UseCase) publishRegenerated(ctx context.Context, resp *Response) {
	event := events.SlotsEvent{
		AmenityID:    resp.AmenityID,
		FromDate:     resp.FromDate.Format(domain.DateFormat),
		ToDate:       resp.ToDate.Format(domain.DateFormat),
		SlotsCreated: len(resp.Created),
		SlotsUpdated: len(resp.Updated),
		Errors:       resp.Errors,
		OccurredAt:   uc.timeProvider.Now().UTC(),
	}
	if err := uc.publisher.PublishJSON(ctx, events.RoutingSlotsRegenerated, event); err != nil {
		uc.logger.Error("GenerateSlots: failed to publish %s: %v", events.RoutingSlotsRegenerated, err)
	}
}

func slotView(s *domain.Slot) SlotView {
	return SlotView{
		ID:          s.ID,
		DisplayID:   s.DisplayID,
		SlotDate:    s.SlotDate,
		StartTime:   s.SlotStartTime,
		EndTime:     s.SlotEndTime,
		IsAvailable: s.IsAvailable,
	}
}
