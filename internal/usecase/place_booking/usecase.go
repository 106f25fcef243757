package place_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/internal/infra/events"
	amenityRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/amenity"
	slotRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/slot"
	"github.com/helixcare/Resido-AmenityService/pkg/ptr"
	"github.com/helixcare/Resido-AmenityService/pkg/txmanager"
)

// UseCase use case размещения бронирования
type UseCase struct {
	amenityRepo  AmenityRepository
	slotRepo     SlotRepository
	blackoutRepo BlackoutRepository
	bookingRepo  BookingRepository
	txManager    TransactionManager
	publisher    EventPublisher
	timeProvider TimeProvider
	logger       Logger
	lookbackDays int
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	amenityRepo AmenityRepository,
	slotRepo SlotRepository,
	blackoutRepo BlackoutRepository,
	bookingRepo BookingRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	logger Logger,
) *UseCase {
	return &UseCase{
		amenityRepo:  amenityRepo,
		slotRepo:     slotRepo,
		blackoutRepo: blackoutRepo,
		bookingRepo:  bookingRepo,
		txManager:    txManager,
		publisher:    publisher,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		lookbackDays: domain.DefaultBookingLookbackDays,
	}
}

// Execute выполняет размещение бронирования.
// Одиночное бронирование связывается со слотами и занимает их вместимость
// в сериализуемой транзакции. Родитель серии сохраняется без привязки
// к слотам - инстансы размещает экспандер.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("PlaceBooking: amenity=%s, tenant=%s, date=%s, time=%s-%s, recurring=%t",
		req.AmenityID, req.TenantID, req.BookingDate.Format(domain.DateFormat),
		req.StartTime, req.EndTime, req.IsRecurring)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("PlaceBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем amenity
	amenity, err := uc.getActiveAmenity(ctx, req.AmenityID)
	if err != nil {
		return nil, err
	}

	// 3. Темпоральная здравость: время в зоне amenity
	now := uc.timeProvider.Now().In(amenity.Location())
	if err := validateTemporal(req.BookingDate, req.StartTime, req.EndTime, now, uc.lookbackDays); err != nil {
		uc.logger.Warn("PlaceBooking: temporal validation failed: %v", err)
		return nil, err
	}

	// 4. Политики amenity: рабочее окно, праздники, walk-in
	if err := validatePolicy(amenity, req.BookingDate, req.StartTime, req.EndTime); err != nil {
		uc.logger.Warn("PlaceBooking: policy validation failed: %v", err)
		return nil, err
	}

	// 5. Родитель серии: проверяем правило и сохраняем без занятия слотов
	if req.IsRecurring {
		if _, err := buildRule(req); err != nil {
			uc.logger.Warn("PlaceBooking: recurrence rule invalid: %v", err)
			return nil, err
		}
		return uc.placeParent(ctx, req)
	}

	// 6. Привязка к слотам и занятие вместимости в сериализуемой транзакции
	var result *domain.Booking
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking := &domain.Booking{
			AmenityID:   req.AmenityID,
			TenantID:    req.TenantID,
			BookingDate: domain.DateOnly(req.BookingDate),
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Status:      domain.StatusPending,
			Notes:       req.Notes,
			RequestedOn: uc.timeProvider.Now().UTC(),
		}

		created, err := uc.bindAndCreate(txCtx, amenity, booking, req.SelectedSlotIDs)
		if err != nil {
			return err
		}

		result = created
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrRetryExhausted) {
			uc.logger.Warn("PlaceBooking: contention retries exhausted: %v", err)
			return nil, ErrSlotContention
		}
		return nil, err
	}

	uc.logger.Info("PlaceBooking: placed booking id=%s display=%s slots=%d",
		result.ID, result.DisplayID, len(result.SelectedSlotIDs))

	uc.publishBookingEvent(ctx, events.RoutingBookingPlaced, result)

	return toResponse(result), nil
}

// PlaceChild размещает инстанс серии с полной проверкой политик.
// Вызывается экспандером; сам открывает транзакцию.
func (uc *UseCase) PlaceChild(ctx context.Context, req *ChildRequest) (*domain.Booking, error) {
	amenity, err := uc.getActiveAmenity(ctx, req.Parent.AmenityID)
	if err != nil {
		return nil, err
	}

	if !req.StartTime.IsBefore(req.EndTime) {
		return nil, fmt.Errorf("%w: endTime must be after startTime", ErrInvalidInput)
	}

	if err := validatePolicy(amenity, req.BookingDate, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	var result *domain.Booking
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking := &domain.Booking{
			AmenityID:          req.Parent.AmenityID,
			TenantID:           req.Parent.TenantID,
			BookingDate:        domain.DateOnly(req.BookingDate),
			StartTime:          req.StartTime,
			EndTime:            req.EndTime,
			Status:             req.Parent.Status,
			Notes:              req.Parent.Notes,
			ParentBookingID:    &req.Parent.ID,
			OccurrenceDate:     ptr.Ptr(domain.DateOnly(req.OccurrenceDate)),
			RecurrenceSequence: ptr.Ptr(req.RecurrenceSequence),
			RequestedOn:        uc.timeProvider.Now().UTC(),
		}

		created, err := uc.bindAndCreate(txCtx, amenity, booking, nil)
		if err != nil {
			return err
		}

		result = created
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrRetryExhausted) {
			return nil, ErrSlotContention
		}
		return nil, err
	}

	uc.publishBookingEvent(ctx, events.RoutingBookingPlaced, result)

	return result, nil
}

// bindAndCreate связывает бронирование с пересекающимися слотами, занимает
// их вместимость и сохраняет строку. Выполняется внутри транзакции вызывающего.
func (uc *UseCase) bindAndCreate(
	txCtx context.Context,
	amenity *domain.Amenity,
	booking *domain.Booking,
	requestedSlotIDs []string,
) (*domain.Booking, error) {
	// Blackout-срез читается в транзакции: видим зафиксированное состояние
	// на момент начала операции
	blackouts, err := uc.blackoutRepo.ListActiveOnDate(txCtx, amenity.ID, booking.BookingDate)
	if err != nil {
		uc.logger.Error("PlaceBooking: failed to list blackouts: %v", err)
		return nil, fmt.Errorf("%w: failed to list blackouts: %v", ErrInternal, err)
	}
	for _, b := range blackouts {
		if b.Blocks(booking.BookingDate, booking.StartTime, booking.EndTime) {
			uc.logger.Warn("PlaceBooking: range blocked by blackout %s", b.DisplayID)
			return nil, ErrBlackoutConflict
		}
	}

	// Пересекающиеся слоты под блокировкой FOR UPDATE
	slots, err := uc.slotRepo.FindOverlapping(txCtx, amenity.ID, booking.BookingDate, booking.StartTime, booking.EndTime)
	if err != nil {
		uc.logger.Error("PlaceBooking: failed to find overlapping slots: %v", err)
		return nil, fmt.Errorf("%w: failed to find overlapping slots: %v", ErrInternal, err)
	}
	if len(slots) == 0 {
		uc.logger.Warn("PlaceBooking: no slots cover %s %s-%s",
			booking.BookingDate.Format(domain.DateFormat), booking.StartTime, booking.EndTime)
		return nil, ErrSlotUnavailable
	}

	// Каждый слот привязки должен быть доступен и иметь запас вместимости
	bound := make(map[string]struct{}, len(slots))
	slotIDs := make([]string, 0, len(slots))
	for _, s := range slots {
		if !s.IsAvailable || !s.Active || s.IsFullyBooked() {
			uc.logger.Warn("PlaceBooking: slot %s unavailable (%d/%d, available=%t)",
				s.DisplayID, s.TotalBookings, s.MaxConcurrentBookings, s.IsAvailable)
			return nil, ErrSlotUnavailable
		}
		bound[s.ID] = struct{}{}
		slotIDs = append(slotIDs, s.ID)
	}

	// Клиентские slot id обязаны входить в набор пересечения
	for _, id := range requestedSlotIDs {
		if _, ok := bound[id]; !ok {
			uc.logger.Warn("PlaceBooking: supplied slot id=%s is not in the overlap set", id)
			return nil, ErrInvalidSlotID
		}
	}

	booking.SelectedSlotIDs = slotIDs

	created, err := uc.bookingRepo.Create(txCtx, booking)
	if err != nil {
		uc.logger.Error("PlaceBooking: failed to create booking: %v", err)
		return nil, fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
	}

	for _, id := range slotIDs {
		if err := uc.slotRepo.IncrementBookings(txCtx, id); err != nil {
			if errors.Is(err, slotRepo.ErrCapacityExhausted) {
				return nil, ErrSlotUnavailable
			}
			uc.logger.Error("PlaceBooking: failed to increment slot %s: %v", id, err)
			return nil, fmt.Errorf("%w: failed to increment slot: %v", ErrInternal, err)
		}
	}

	return created, nil
}

// placeParent сохраняет родителя серии; слоты занимают только инстансы
func (uc *UseCase) placeParent(ctx context.Context, req *Request) (*Response, error) {
	parent := &domain.Booking{
		AmenityID:             req.AmenityID,
		TenantID:              req.TenantID,
		BookingDate:           domain.DateOnly(req.BookingDate),
		StartTime:             req.StartTime,
		EndTime:               req.EndTime,
		Status:                domain.StatusPending,
		Notes:                 req.Notes,
		IsRecurring:           true,
		RepeatFrequency:       req.RepeatFrequency,
		RepeatInterval:        req.RepeatInterval,
		RepeatOnDaysOfWeek:    req.RepeatOnDaysOfWeek,
		RepeatOnDayOfMonth:    req.RepeatOnDayOfMonth,
		RecurrenceEndType:     req.RecurrenceEndType,
		RecurrenceEndDate:     req.RecurrenceEndDate,
		RecurrenceOccurrences: req.RecurrenceOccurrences,
		RequestedOn:           uc.timeProvider.Now().UTC(),
	}
	if parent.RepeatInterval == 0 {
		parent.RepeatInterval = 1
	}

	created, err := uc.bookingRepo.Create(ctx, parent)
	if err != nil {
		uc.logger.Error("PlaceBooking: failed to create recurrence parent: %v", err)
		return nil, fmt.Errorf("%w: failed to create recurrence parent: %v", ErrInternal, err)
	}

	uc.logger.Info("PlaceBooking: created recurrence parent id=%s display=%s", created.ID, created.DisplayID)

	return toResponse(created), nil
}

// getActiveAmenity загружает amenity; отсутствие и неактивность неразличимы
// для клиента
func (uc *UseCase) getActiveAmenity(ctx context.Context, id string) (*domain.Amenity, error) {
	amenity, err := uc.amenityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, amenityRepo.ErrAmenityNotFound) {
			uc.logger.Warn("PlaceBooking: amenity id=%s not found", id)
			return nil, ErrAmenityNotFound
		}
		uc.logger.Error("PlaceBooking: failed to get amenity id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: failed to get amenity: %v", ErrInternal, err)
	}
	if !amenity.Active {
		uc.logger.Warn("PlaceBooking: amenity id=%s is inactive", id)
		return nil, ErrAmenityNotFound
	}
	return amenity, nil
}

// publishBookingEvent отправляет событие жизненного цикла; ошибки публикации
// только логируются
func (uc *UseCase) publishBookingEvent(ctx context.Context, routingKey string, b *domain.Booking) {
	event := events.BookingEvent{
		BookingID:   b.ID,
		DisplayID:   b.DisplayID,
		TenantID:    b.TenantID,
		AmenityID:   b.AmenityID,
		Status:      string(b.Status),
		BookingDate: b.BookingDate.Format(domain.DateFormat),
		StartTime:   string(b.StartTime),
		EndTime:     string(b.EndTime),
		SlotIDs:     b.SelectedSlotIDs,
		OccurredAt:  uc.timeProvider.Now().UTC(),
	}
	if err := uc.publisher.PublishJSON(ctx, routingKey, event); err != nil {
		uc.logger.Error("PlaceBooking: failed to publish %s: %v", routingKey, err)
	}
}

func toResponse(b *domain.Booking) *Response {
	return &Response{
		ID:              b.ID,
		DisplayID:       b.DisplayID,
		AmenityID:       b.AmenityID,
		TenantID:        b.TenantID,
		BookingDate:     b.BookingDate,
		StartTime:       b.StartTime,
		EndTime:         b.EndTime,
		Status:          string(b.Status),
		SelectedSlotIDs: b.SelectedSlotIDs,
		Notes:           b.Notes,
		IsRecurring:     b.IsRecurring,
		RequestedOn:     b.RequestedOn,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}
