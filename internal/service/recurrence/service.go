package recurrence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/internal/infra/events"
	amenityRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/amenity"
	bookingRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/booking"
	exceptionRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/exception"
	slotRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/slot"
	"github.com/helixcare/Resido-AmenityService/internal/service/recurrence/models"
	"github.com/helixcare/Resido-AmenityService/pkg/txmanager"
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// Service сервис управления сериями повторяющихся бронирований
type Service struct {
	amenityRepo   AmenityRepository
	bookingRepo   BookingRepository
	exceptionRepo ExceptionRepository
	slotRepo      SlotRepository
	blackoutRepo  BlackoutRepository
	txManager     TransactionManager
	publisher     EventPublisher
	timeProvider  TimeProvider
	logger        Logger
}

// NewService создает новый экземпляр сервиса серий
func NewService(
	amenityRepo AmenityRepository,
	bookingRepo BookingRepository,
	exceptionRepo ExceptionRepository,
	slotRepo SlotRepository,
	blackoutRepo BlackoutRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	logger Logger,
) *Service {
	return &Service{
		amenityRepo:   amenityRepo,
		bookingRepo:   bookingRepo,
		exceptionRepo: exceptionRepo,
		slotRepo:      slotRepo,
		blackoutRepo:  blackoutRepo,
		txManager:     txManager,
		publisher:     publisher,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// CreateException создает исключение для конкретного вхождения серии.
// Если вхождение уже материализовано, исключение применяется к нему
// в той же транзакции: skip/cancel отменяют вхождение с освобождением
// слотов, modify перепривязывает его к новому расписанию.
func (s *Service) CreateException(ctx context.Context, parentID string, req *models.CreateExceptionRequest) (*models.ExceptionResponse, error) {
	s.logger.Info("CreateException: parent=%s, date=%s, type=%s",
		parentID, req.OccurrenceDate.Format(domain.DateFormat), req.ExceptionType)

	exceptionType, err := validateExceptionRequest(req)
	if err != nil {
		return nil, err
	}

	var created *domain.RecurrenceException
	var affectedID *string
	var cancelledChild, modifiedChild *domain.Booking

	err = s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		parent, err := s.bookingRepo.GetByIDForUpdate(txCtx, parentID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: CreateException - get parent: %v", ErrInternal, err)
		}
		if !parent.IsRecurrenceParent() {
			return ErrNotRecurrenceParent
		}

		exception := &domain.RecurrenceException{
			ParentBookingID: parentID,
			OccurrenceDate:  domain.DateOnly(req.OccurrenceDate),
			ExceptionType:   exceptionType,
			NewBookingDate:  req.NewBookingDate,
			NewStartTime:    req.NewStartTime,
			NewEndTime:      req.NewEndTime,
			Reason:          req.Reason,
			ModifiedBy:      req.ModifiedBy,
		}

		created, err = s.exceptionRepo.Create(txCtx, exception)
		if err != nil {
			if errors.Is(err, exceptionRepo.ErrExceptionExists) {
				return ErrExceptionConflict
			}
			return fmt.Errorf("%w: CreateException - create exception: %v", ErrInternal, err)
		}

		child, err := s.findChild(txCtx, parentID, req.OccurrenceDate)
		if err != nil {
			return err
		}
		if child == nil || !child.IsActive() {
			return nil
		}
		affectedID = &child.ID

		if exception.Suppresses() {
			if err := s.releaseSlots(txCtx, child); err != nil {
				return err
			}
			if err := s.bookingRepo.Cancel(txCtx, child.ID, req.Reason); err != nil {
				return fmt.Errorf("%w: CreateException - cancel child: %v", ErrInternal, err)
			}
			child.Status = domain.StatusCancelled
			cancelledChild = child
			return nil
		}

		// modify: перепривязка материализованного вхождения
		modified, err := s.rebindChild(txCtx, child, exception)
		if err != nil {
			return err
		}
		modifiedChild = modified
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrRetryExhausted) {
			return nil, ErrSlotContention
		}
		return nil, err
	}

	if cancelledChild != nil {
		s.publishBookingEvent(ctx, events.RoutingBookingCancelled, cancelledChild, req.Reason)
	}
	if modifiedChild != nil {
		s.publishBookingEvent(ctx, events.RoutingBookingModified, modifiedChild, req.Reason)
	}

	return models.FromDomainException(created, affectedID), nil
}

// CancelFuture отменяет все активные вхождения серии с booking_date начиная
// с fromDate, освобождая их слоты. Родитель блокируется только на время
// выборки списка; каждое вхождение отменяется в собственной транзакции,
// ошибка одного не откатывает остальные.
func (s *Service) CancelFuture(ctx context.Context, parentID string, req *models.CancelFutureRequest) (*models.CancelFutureResponse, error) {
	s.logger.Info("CancelFuture: parent=%s, from=%s", parentID, req.FromDate.Format(domain.DateFormat))

	if req.FromDate.IsZero() {
		return nil, fmt.Errorf("%w: fromDate is required", ErrInvalidInput)
	}

	var children []*domain.Booking
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		parent, err := s.bookingRepo.GetByIDForUpdate(txCtx, parentID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: CancelFuture - get parent: %v", ErrInternal, err)
		}
		if !parent.IsRecurrenceParent() {
			return ErrNotRecurrenceParent
		}

		from := domain.DateOnly(req.FromDate)
		children, err = s.bookingRepo.ListChildren(txCtx, domain.ChildrenFilter{
			ParentBookingID: parentID,
			FromDate:        &from,
			OnlyActive:      true,
		})
		if err != nil {
			return fmt.Errorf("%w: CancelFuture - list children: %v", ErrInternal, err)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrRetryExhausted) {
			return nil, ErrSlotContention
		}
		return nil, err
	}

	cancelled := make([]*domain.Booking, 0, len(children))
	errs := make([]string, 0)
	for _, child := range children {
		if err := s.cancelChild(ctx, child.ID, req.Reason); err != nil {
			s.logger.Warn("CancelFuture: child %s failed: %v", child.ID, err)
			errs = append(errs, fmt.Sprintf("%s: %v", child.ID, err))
			continue
		}
		child.Status = domain.StatusCancelled
		cancelled = append(cancelled, child)
	}

	ids := make([]string, 0, len(cancelled))
	for _, child := range cancelled {
		ids = append(ids, child.ID)
		s.publishBookingEvent(ctx, events.RoutingBookingCancelled, child, req.Reason)
	}

	s.logger.Info("CancelFuture: parent=%s, cancelled %d occurrences, %d failed", parentID, len(ids), len(errs))
	return &models.CancelFutureResponse{CancelledCount: len(ids), CancelledIDs: ids, Errors: errs}, nil
}

// cancelChild отменяет одно вхождение в собственной транзакции. Статус
// перечитывается под блокировкой: отмененное параллельным запросом вхождение
// пропускается без ошибки.
func (s *Service) cancelChild(ctx context.Context, childID, reason string) error {
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		child, err := s.bookingRepo.GetByIDForUpdate(txCtx, childID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: cancelChild - get child: %v", ErrInternal, err)
		}
		if !child.IsActive() {
			return nil
		}
		if err := s.releaseSlots(txCtx, child); err != nil {
			return err
		}
		if err := s.bookingRepo.Cancel(txCtx, child.ID, reason); err != nil {
			return fmt.Errorf("%w: cancelChild - cancel: %v", ErrInternal, err)
		}
		return nil
	})
	if errors.Is(err, txmanager.ErrRetryExhausted) {
		return ErrSlotContention
	}
	return err
}

// UpdateChildren массово обновляет заметки активных вхождений серии
func (s *Service) UpdateChildren(ctx context.Context, parentID string, req *models.UpdateChildrenRequest) (*models.UpdateChildrenResponse, error) {
	s.logger.Info("UpdateChildren: parent=%s", parentID)

	if req.Notes == nil {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	if len(*req.Notes) > domain.MaxNotesLength {
		return nil, fmt.Errorf("%w: notes exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	var ids []string
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		parent, err := s.bookingRepo.GetByIDForUpdate(txCtx, parentID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: UpdateChildren - get parent: %v", ErrInternal, err)
		}
		if !parent.IsRecurrenceParent() {
			return ErrNotRecurrenceParent
		}

		children, err := s.bookingRepo.ListChildren(txCtx, domain.ChildrenFilter{
			ParentBookingID: parentID,
			OnlyActive:      true,
		})
		if err != nil {
			return fmt.Errorf("%w: UpdateChildren - list children: %v", ErrInternal, err)
		}

		ids = ids[:0]
		for _, child := range children {
			if err := s.bookingRepo.UpdateNotes(txCtx, child.ID, req.Notes); err != nil {
				return fmt.Errorf("%w: UpdateChildren - update child %s: %v", ErrInternal, child.ID, err)
			}
			ids = append(ids, child.ID)
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrRetryExhausted) {
			return nil, ErrSlotContention
		}
		return nil, err
	}

	return &models.UpdateChildrenResponse{UpdatedCount: len(ids), UpdatedIDs: ids}, nil
}

// findChild ищет материализованное вхождение по дате вхождения
func (s *Service) findChild(ctx context.Context, parentID string, occurrenceDate time.Time) (*domain.Booking, error) {
	children, err := s.bookingRepo.ListChildren(ctx, domain.ChildrenFilter{ParentBookingID: parentID})
	if err != nil {
		return nil, fmt.Errorf("%w: findChild - list children: %v", ErrInternal, err)
	}

	target := domain.DateOnly(occurrenceDate)
	for _, c := range children {
		if c.OccurrenceDate != nil && domain.DateOnly(*c.OccurrenceDate).Equal(target) {
			return c, nil
		}
	}
	return nil, nil
}

// rebindChild применяет modify-исключение к материализованному вхождению:
// освобождает старые слоты и занимает слоты нового расписания атомарно
func (s *Service) rebindChild(ctx context.Context, child *domain.Booking, e *domain.RecurrenceException) (*domain.Booking, error) {
	newDate := child.BookingDate
	if e.NewBookingDate != nil {
		newDate = domain.DateOnly(*e.NewBookingDate)
	}
	newStart := child.StartTime
	if e.NewStartTime != nil {
		newStart = *e.NewStartTime
	}
	newEnd := child.EndTime
	if e.NewEndTime != nil {
		newEnd = *e.NewEndTime
	}

	if !newStart.IsBefore(newEnd) {
		return nil, fmt.Errorf("%w: newEndTime must be after newStartTime", ErrInvalidInput)
	}

	amenity, err := s.getAmenity(ctx, child.AmenityID)
	if err != nil {
		return nil, err
	}
	if !amenity.WithinOperatingWindow(newStart, newEnd) {
		return nil, ErrOutsideOperatingWindow
	}
	if amenity.IsHoliday(newDate) {
		return nil, ErrHolidayConflict
	}
	if w, ok := amenity.WalkInSchedule.WindowFor(newDate); ok && w.Intersects(newStart, newEnd) {
		return nil, fmt.Errorf("%w: range intersects the walk-in window %s-%s",
			ErrOutsideOperatingWindow, w.StartTime, w.EndTime)
	}

	if err := s.releaseSlots(ctx, child); err != nil {
		return nil, err
	}

	newSlotIDs, err := s.bindSlots(ctx, amenity.ID, newDate, newStart, newEnd)
	if err != nil {
		return nil, err
	}

	if err := s.bookingRepo.UpdateSchedule(ctx, child.ID, newDate, newStart, newEnd, newSlotIDs); err != nil {
		return nil, fmt.Errorf("%w: rebindChild - update schedule: %v", ErrInternal, err)
	}

	child.BookingDate = newDate
	child.StartTime = newStart
	child.EndTime = newEnd
	child.SelectedSlotIDs = newSlotIDs
	return child, nil
}

// releaseSlots освобождает вместимость слотов вхождения; слот, накрытый
// актуальным blackout-периодом, остается недоступным
func (s *Service) releaseSlots(ctx context.Context, booking *domain.Booking) error {
	if len(booking.SelectedSlotIDs) == 0 {
		return nil
	}

	slots, err := s.slotRepo.GetByIDs(ctx, booking.SelectedSlotIDs)
	if err != nil {
		return fmt.Errorf("%w: releaseSlots - get slots: %v", ErrInternal, err)
	}

	blackouts, err := s.blackoutRepo.ListActiveOnDate(ctx, booking.AmenityID, booking.BookingDate)
	if err != nil {
		return fmt.Errorf("%w: releaseSlots - list blackouts: %v", ErrInternal, err)
	}

	for _, slot := range slots {
		covered := false
		for _, b := range blackouts {
			if b.Blocks(slot.SlotDate, slot.SlotStartTime, slot.SlotEndTime) {
				covered = true
				break
			}
		}
		if err := s.slotRepo.DecrementBookings(ctx, slot.ID, covered); err != nil {
			return fmt.Errorf("%w: releaseSlots - decrement slot %s: %v", ErrInternal, slot.ID, err)
		}
	}

	return nil
}

// bindSlots находит пересекающиеся слоты интервала и занимает их
func (s *Service) bindSlots(ctx context.Context, amenityID string, date time.Time, start, end types.TimeString) ([]string, error) {
	blackouts, err := s.blackoutRepo.ListActiveOnDate(ctx, amenityID, date)
	if err != nil {
		return nil, fmt.Errorf("%w: bindSlots - list blackouts: %v", ErrInternal, err)
	}
	for _, b := range blackouts {
		if b.Blocks(date, start, end) {
			return nil, ErrBlackoutConflict
		}
	}

	slots, err := s.slotRepo.FindOverlapping(ctx, amenityID, date, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: bindSlots - find overlapping: %v", ErrInternal, err)
	}
	if len(slots) == 0 {
		return nil, ErrSlotUnavailable
	}

	slotIDs := make([]string, 0, len(slots))
	for _, slot := range slots {
		if !slot.IsAvailable || !slot.Active || slot.IsFullyBooked() {
			return nil, ErrSlotUnavailable
		}
		slotIDs = append(slotIDs, slot.ID)
	}

	for _, id := range slotIDs {
		if err := s.slotRepo.IncrementBookings(ctx, id); err != nil {
			if errors.Is(err, slotRepo.ErrCapacityExhausted) {
				return nil, ErrSlotUnavailable
			}
			return nil, fmt.Errorf("%w: bindSlots - increment slot %s: %v", ErrInternal, id, err)
		}
	}

	return slotIDs, nil
}

func (s *Service) getAmenity(ctx context.Context, id string) (*domain.Amenity, error) {
	amenity, err := s.amenityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, amenityRepo.ErrAmenityNotFound) {
			return nil, ErrAmenityNotFound
		}
		return nil, fmt.Errorf("%w: getAmenity - repository error: %v", ErrInternal, err)
	}
	return amenity, nil
}

func validateExceptionRequest(req *models.CreateExceptionRequest) (domain.ExceptionType, error) {
	if req.OccurrenceDate.IsZero() {
		return "", fmt.Errorf("%w: occurrenceDate is required", ErrInvalidInput)
	}

	exceptionType := domain.ExceptionType(req.ExceptionType)
	switch exceptionType {
	case domain.ExceptionSkip, domain.ExceptionCancel:
	case domain.ExceptionModify:
		if req.NewBookingDate == nil && req.NewStartTime == nil && req.NewEndTime == nil {
			return "", fmt.Errorf("%w: modify exception requires at least one new field", ErrInvalidInput)
		}
		if req.NewStartTime != nil {
			if err := req.NewStartTime.Validate(); err != nil {
				return "", fmt.Errorf("%w: invalid newStartTime: %v", ErrInvalidInput, err)
			}
		}
		if req.NewEndTime != nil {
			if err := req.NewEndTime.Validate(); err != nil {
				return "", fmt.Errorf("%w: invalid newEndTime: %v", ErrInvalidInput, err)
			}
		}
	default:
		return "", fmt.Errorf("%w: unknown exception type %q", ErrInvalidInput, req.ExceptionType)
	}

	return exceptionType, nil
}

// publishBookingEvent отправляет событие жизненного цикла; ошибки публикации
// только логируются
func (s *Service) publishBookingEvent(ctx context.Context, routingKey string, b *domain.Booking, reason string) {
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
		Reason:      reason,
		OccurredAt:  s.timeProvider.Now().UTC(),
	}
	if err := s.publisher.PublishJSON(ctx, routingKey, event); err != nil {
		s.logger.Error("recurrence: failed to publish %s: %v", routingKey, err)
	}
}
