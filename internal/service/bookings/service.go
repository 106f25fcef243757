package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/internal/infra/events"
	amenityRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/amenity"
	bookingRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/booking"
	slotRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/slot"
	"github.com/helixcare/Resido-AmenityService/internal/service/bookings/models"
	"github.com/helixcare/Resido-AmenityService/pkg/txmanager"
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// Service сервис жизненного цикла бронирований
type Service struct {
	amenityRepo  AmenityRepository
	bookingRepo  BookingRepository
	slotRepo     SlotRepository
	blackoutRepo BlackoutRepository
	txManager    TransactionManager
	publisher    EventPublisher
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	amenityRepo AmenityRepository,
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	blackoutRepo BlackoutRepository,
	txManager TransactionManager,
	publisher EventPublisher,
	logger Logger,
) *Service {
	return &Service{
		amenityRepo:  amenityRepo,
		bookingRepo:  bookingRepo,
		slotRepo:     slotRepo,
		blackoutRepo: blackoutRepo,
		txManager:    txManager,
		publisher:    publisher,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// GetByID получает бронирование по ID
// Резидент видит только собственные бронирования
func (s *Service) GetByID(ctx context.Context, id string, tenantID string) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%s for tenant=%s", id, tenantID)

	booking, err := s.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if booking.TenantID != tenantID {
		s.logger.Warn("GetByID: access denied for tenant=%s to booking id=%s", tenantID, id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainBooking(booking), nil
}

// GetTenantBookings получает историю бронирований резидента
// Опционально фильтрует по статусу
func (s *Service) GetTenantBookings(ctx context.Context, req *models.GetTenantBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetTenantBookings: tenant=%s, status=%v", req.TenantID, req.Status)

	var domainStatus *domain.BookingStatus
	if req.Status != nil {
		status, err := models.ToDomainBookingStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetTenantBookings: invalid status=%s", *req.Status)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidStatus)
		}
		domainStatus = &status
	}

	bookings, err := s.bookingRepo.ListByTenant(ctx, req.TenantID, domainStatus)
	if err != nil {
		s.logger.Error("GetTenantBookings: repository error for tenant=%s: %v", req.TenantID, err)
		return nil, fmt.Errorf("%w: GetTenantBookings - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(bookings), nil
}

// Cancel отменяет бронирование и освобождает вместимость его слотов.
// Допустимо только из pending/confirmed; повторная активация запрещена.
func (s *Service) Cancel(ctx context.Context, id string, req *models.CancelBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Cancel: booking id=%s, tenant=%s", id, req.TenantID)

	if len(req.CancellationReason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: cancellation reason is too long", ErrInvalidInput)
	}

	var cancelled *domain.Booking
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: Cancel - get booking: %v", ErrInternal, err)
		}

		if booking.TenantID != req.TenantID {
			return ErrAccessDenied
		}
		if !booking.CanBeCancelled() {
			s.logger.Warn("Cancel: booking id=%s in status %s cannot be cancelled", id, booking.Status)
			return ErrIllegalStateTransition
		}

		if err := s.releaseSlots(txCtx, booking); err != nil {
			return err
		}

		if err := s.bookingRepo.Cancel(txCtx, id, req.CancellationReason); err != nil {
			return fmt.Errorf("%w: Cancel - update booking: %v", ErrInternal, err)
		}

		booking.Status = domain.StatusCancelled
		cancelled = booking
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrRetryExhausted) {
			return nil, ErrSlotContention
		}
		return nil, err
	}

	s.logger.Info("Cancel: booking id=%s cancelled, released %d slots", id, len(cancelled.SelectedSlotIDs))
	s.publishBookingEvent(ctx, events.RoutingBookingCancelled, cancelled, req.CancellationReason)

	return models.FromDomainBooking(cancelled), nil
}

// Confirm подтверждает бронирование: pending -> confirmed, вместимость
// слотов не меняется (занята с момента размещения)
func (s *Service) Confirm(ctx context.Context, id string) (*models.BookingResponse, error) {
	s.logger.Info("Confirm: booking id=%s", id)

	var confirmed *domain.Booking
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: Confirm - get booking: %v", ErrInternal, err)
		}

		if !booking.CanBeConfirmed() {
			s.logger.Warn("Confirm: booking id=%s in status %s cannot be confirmed", id, booking.Status)
			return ErrIllegalStateTransition
		}

		if err := s.bookingRepo.Confirm(txCtx, id); err != nil {
			return fmt.Errorf("%w: Confirm - update booking: %v", ErrInternal, err)
		}

		booking.Status = domain.StatusConfirmed
		confirmed = booking
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrRetryExhausted) {
			return nil, ErrSlotContention
		}
		return nil, err
	}

	s.publishBookingEvent(ctx, events.RoutingBookingConfirmed, confirmed, "")

	return models.FromDomainBooking(confirmed), nil
}

// Reject отклоняет ожидающее бронирование: pending -> rejected.
// Терминальный статус; вместимость слотов освобождается как при отмене.
func (s *Service) Reject(ctx context.Context, id string, req *models.RejectBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Reject: booking id=%s", id)

	if req.RejectionReason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrInvalidInput)
	}

	var rejected *domain.Booking
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: Reject - get booking: %v", ErrInternal, err)
		}

		if !booking.CanBeRejected() {
			s.logger.Warn("Reject: booking id=%s in status %s cannot be rejected", id, booking.Status)
			return ErrIllegalStateTransition
		}

		if err := s.releaseSlots(txCtx, booking); err != nil {
			return err
		}

		if err := s.bookingRepo.Reject(txCtx, id, req.RejectionReason, req.RejectionRemarks); err != nil {
			return fmt.Errorf("%w: Reject - update booking: %v", ErrInternal, err)
		}

		booking.Status = domain.StatusRejected
		rejected = booking
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrRetryExhausted) {
			return nil, ErrSlotContention
		}
		return nil, err
	}

	s.publishBookingEvent(ctx, events.RoutingBookingRejected, rejected, req.RejectionReason)

	return models.FromDomainBooking(rejected), nil
}

// Complete завершает подтвержденное бронирование, когда его конец
// (в зоне amenity) остался в прошлом
func (s *Service) Complete(ctx context.Context, id string) (*models.BookingResponse, error) {
	s.logger.Info("Complete: booking id=%s", id)

	var completed *domain.Booking
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: Complete - get booking: %v", ErrInternal, err)
		}

		if !booking.CanBeCompleted() {
			s.logger.Warn("Complete: booking id=%s in status %s cannot be completed", id, booking.Status)
			return ErrIllegalStateTransition
		}

		amenity, err := s.getAmenity(txCtx, booking.AmenityID)
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		if !booking.EndsBy(now, amenity.Location()) {
			s.logger.Warn("Complete: booking id=%s has not ended yet", id)
			return ErrIllegalStateTransition
		}

		if err := s.bookingRepo.Complete(txCtx, id); err != nil {
			return fmt.Errorf("%w: Complete - update booking: %v", ErrInternal, err)
		}

		booking.Status = domain.StatusCompleted
		completed = booking
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrRetryExhausted) {
			return nil, ErrSlotContention
		}
		return nil, err
	}

	s.publishBookingEvent(ctx, events.RoutingBookingCompleted, completed, "")

	return models.FromDomainBooking(completed), nil
}

// Modify атомарно перепривязывает бронирование: освобождение старых слотов
// и занятие новых в одной сериализуемой транзакции. Неудача новой привязки
// откатывает всё.
func (s *Service) Modify(ctx context.Context, id string, req *models.ModifyBookingRequest) (*models.BookingResponse, error) {
	s.logger.Info("Modify: booking id=%s, tenant=%s", id, req.TenantID)

	var modified *domain.Booking
	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByIDForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: Modify - get booking: %v", ErrInternal, err)
		}

		if booking.TenantID != req.TenantID {
			return ErrAccessDenied
		}
		if !booking.IsActive() {
			s.logger.Warn("Modify: booking id=%s in status %s cannot be modified", id, booking.Status)
			return ErrIllegalStateTransition
		}

		// Новое расписание: неуказанные поля сохраняют текущие значения
		newDate := booking.BookingDate
		if req.BookingDate != nil {
			newDate = domain.DateOnly(*req.BookingDate)
		}
		newStart := booking.StartTime
		if req.StartTime != nil {
			newStart = *req.StartTime
		}
		newEnd := booking.EndTime
		if req.EndTime != nil {
			newEnd = *req.EndTime
		}

		if err := newStart.Validate(); err != nil {
			return fmt.Errorf("%w: invalid startTime: %v", ErrInvalidInput, err)
		}
		if err := newEnd.Validate(); err != nil {
			return fmt.Errorf("%w: invalid endTime: %v", ErrInvalidInput, err)
		}
		if !newStart.IsBefore(newEnd) {
			return fmt.Errorf("%w: endTime must be after startTime", ErrInvalidInput)
		}

		amenity, err := s.getAmenity(txCtx, booking.AmenityID)
		if err != nil {
			return err
		}

		if err := s.validatePolicy(amenity, newDate, newStart, newEnd); err != nil {
			return err
		}

		// Освобождаем старую привязку
		if err := s.releaseSlots(txCtx, booking); err != nil {
			return err
		}

		// Новая привязка по правилам размещения
		newSlotIDs, err := s.bindSlots(txCtx, amenity, newDate, newStart, newEnd)
		if err != nil {
			return err
		}

		if err := s.bookingRepo.UpdateSchedule(txCtx, id, newDate, newStart, newEnd, newSlotIDs); err != nil {
			return fmt.Errorf("%w: Modify - update schedule: %v", ErrInternal, err)
		}
		if req.Notes != nil {
			if err := s.bookingRepo.UpdateNotes(txCtx, id, req.Notes); err != nil {
				return fmt.Errorf("%w: Modify - update notes: %v", ErrInternal, err)
			}
			booking.Notes = req.Notes
		}

		booking.BookingDate = newDate
		booking.StartTime = newStart
		booking.EndTime = newEnd
		booking.SelectedSlotIDs = newSlotIDs
		modified = booking
		return nil
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrRetryExhausted) {
			return nil, ErrSlotContention
		}
		return nil, err
	}

	s.logger.Info("Modify: booking id=%s rebound to %d slots", id, len(modified.SelectedSlotIDs))
	s.publishBookingEvent(ctx, events.RoutingBookingModified, modified, "")

	return models.FromDomainBooking(modified), nil
}

// releaseSlots освобождает вместимость слотов бронирования.
// Слот, накрытый актуальным blackout-периодом, остается недоступным
// несмотря на освободившееся место.
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

// bindSlots находит пересекающиеся слоты нового интервала и занимает их
func (s *Service) bindSlots(ctx context.Context, amenity *domain.Amenity, date time.Time, start, end types.TimeString) ([]string, error) {
	blackouts, err := s.blackoutRepo.ListActiveOnDate(ctx, amenity.ID, date)
	if err != nil {
		return nil, fmt.Errorf("%w: bindSlots - list blackouts: %v", ErrInternal, err)
	}
	for _, b := range blackouts {
		if b.Blocks(date, start, end) {
			return nil, ErrBlackoutConflict
		}
	}

	slots, err := s.slotRepo.FindOverlapping(ctx, amenity.ID, date, start, end)
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

// validatePolicy проверяет рабочее окно, праздники и walk-in расписание
func (s *Service) validatePolicy(amenity *domain.Amenity, date time.Time, start, end types.TimeString) error {
	if !amenity.WithinOperatingWindow(start, end) {
		return ErrOutsideOperatingWindow
	}
	if amenity.IsHoliday(date) {
		return ErrHolidayConflict
	}
	if w, ok := amenity.WalkInSchedule.WindowFor(date); ok && w.Intersects(start, end) {
		return fmt.Errorf("%w: range intersects the walk-in window %s-%s",
			ErrOutsideOperatingWindow, w.StartTime, w.EndTime)
	}
	return nil
}

func (s *Service) getBooking(ctx context.Context, id string) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("getBooking: booking id=%s not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("getBooking: repository error for booking id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: getBooking - repository error: %v", ErrInternal, err)
	}
	return booking, nil
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
		s.logger.Error("bookings: failed to publish %s: %v", routingKey, err)
	}
}
