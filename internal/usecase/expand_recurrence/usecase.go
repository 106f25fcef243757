package expand_recurrence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/internal/infra/events"
	bookingRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/booking"
	"github.com/helixcare/Resido-AmenityService/internal/recurrence"
	"github.com/helixcare/Resido-AmenityService/internal/usecase/place_booking"
)

// UseCase use case материализации повторяющейся серии
type UseCase struct {
	bookingRepo   BookingRepository
	exceptionRepo ExceptionRepository
	placer        ChildPlacer
	publisher     EventPublisher
	timeProvider  TimeProvider
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	exceptionRepo ExceptionRepository,
	placer ChildPlacer,
	publisher EventPublisher,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:   bookingRepo,
		exceptionRepo: exceptionRepo,
		placer:        placer,
		publisher:     publisher,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// Execute материализует инстансы серии.
// Вхождения обходятся хронологически; recurrence_sequence растет только на
// материализованных вхождениях, skip/cancel исключения и неудачные размещения
// его не продвигают.
// Ошибка размещения одного инстанса не прерывает остальные.
// Повторный запуск инкрементален: существующие инстансы не дублируются.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("ExpandRecurrence: parent=%s", req.ParentBookingID)

	if req.ParentBookingID == "" {
		return nil, fmt.Errorf("%w: parentBookingID is required", ErrInvalidInput)
	}

	// 1. Родитель серии
	parent, err := uc.bookingRepo.GetByID(ctx, req.ParentBookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Warn("ExpandRecurrence: parent id=%s not found", req.ParentBookingID)
			return nil, ErrBookingNotFound
		}
		uc.logger.Error("ExpandRecurrence: failed to get parent id=%s: %v", req.ParentBookingID, err)
		return nil, fmt.Errorf("%w: failed to get parent: %v", ErrInternal, err)
	}
	if !parent.IsRecurrenceParent() {
		uc.logger.Warn("ExpandRecurrence: booking id=%s is not a recurrence parent", req.ParentBookingID)
		return nil, ErrNotRecurrenceParent
	}

	// 2. Правило повторения из полей родителя
	rule, err := buildRule(parent)
	if err != nil {
		uc.logger.Warn("ExpandRecurrence: rule invalid for parent id=%s: %v", parent.ID, err)
		return nil, err
	}

	dtstart, err := parent.StartTime.On(parent.BookingDate, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid parent start time: %v", ErrRuleInvalid, err)
	}

	occurrences, err := recurrence.Expand(rule, dtstart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuleInvalid, err)
	}

	// 3. Карта исключений по дате вхождения
	exceptionList, err := uc.exceptionRepo.ListByParent(ctx, parent.ID)
	if err != nil {
		uc.logger.Error("ExpandRecurrence: failed to list exceptions: %v", err)
		return nil, fmt.Errorf("%w: failed to list exceptions: %v", ErrInternal, err)
	}
	exceptions := make(map[time.Time]*domain.RecurrenceException, len(exceptionList))
	for _, e := range exceptionList {
		exceptions[domain.DateOnly(e.OccurrenceDate)] = e
	}

	// 4. Существующие инстансы: повторная материализация их не трогает
	existingChildren, err := uc.bookingRepo.ListChildren(ctx, domain.ChildrenFilter{
		ParentBookingID: parent.ID,
	})
	if err != nil {
		uc.logger.Error("ExpandRecurrence: failed to list children: %v", err)
		return nil, fmt.Errorf("%w: failed to list children: %v", ErrInternal, err)
	}
	existing := make(map[time.Time]struct{}, len(existingChildren))
	for _, c := range existingChildren {
		if c.OccurrenceDate != nil {
			existing[domain.DateOnly(*c.OccurrenceDate)] = struct{}{}
		}
	}

	resp := &Response{
		ParentBookingID: parent.ID,
		Created:         make([]CreatedView, 0, len(occurrences)),
		Skipped:         make([]time.Time, 0),
		Kept:            make([]time.Time, 0),
		Errors:          make([]string, 0),
	}

	// 5. Обход вхождений
	sequence := 0
	for _, dt := range occurrences {
		occurrenceDate := domain.DateOnly(dt)

		if e, ok := exceptions[occurrenceDate]; ok && e.Suppresses() {
			resp.Skipped = append(resp.Skipped, occurrenceDate)
			continue
		}

		if _, ok := existing[occurrenceDate]; ok {
			sequence++
			resp.Kept = append(resp.Kept, occurrenceDate)
			continue
		}

		// Номер в последовательности присваивается только успешно размещенным
		// вхождениям, неудачные позицию не занимают
		childReq := &place_booking.ChildRequest{
			Parent:             parent,
			BookingDate:        occurrenceDate,
			StartTime:          parent.StartTime,
			EndTime:            parent.EndTime,
			OccurrenceDate:     occurrenceDate,
			RecurrenceSequence: sequence + 1,
		}

		// modify-исключение переопределяет дату и времена; привязка к слотам
		// пересчитывается размещением по новым полям
		if e, ok := exceptions[occurrenceDate]; ok && e.ExceptionType == domain.ExceptionModify {
			if e.NewBookingDate != nil {
				childReq.BookingDate = domain.DateOnly(*e.NewBookingDate)
			}
			if e.NewStartTime != nil {
				childReq.StartTime = *e.NewStartTime
			}
			if e.NewEndTime != nil {
				childReq.EndTime = *e.NewEndTime
			}
		}

		child, err := uc.placer.PlaceChild(ctx, childReq)
		if err != nil {
			uc.logger.Warn("ExpandRecurrence: occurrence %s failed: %v",
				occurrenceDate.Format(domain.DateFormat), err)
			resp.Errors = append(resp.Errors,
				fmt.Sprintf("%s: %v", occurrenceDate.Format(domain.DateFormat), err))
			continue
		}

		sequence++
		resp.Created = append(resp.Created, CreatedView{
			ID:                 child.ID,
			DisplayID:          child.DisplayID,
			BookingDate:        child.BookingDate,
			StartTime:          child.StartTime,
			EndTime:            child.EndTime,
			RecurrenceSequence: sequence,
		})
	}

	uc.logger.Info("ExpandRecurrence: parent=%s created=%d skipped=%d kept=%d errors=%d",
		parent.ID, len(resp.Created), len(resp.Skipped), len(resp.Kept), len(resp.Errors))

	uc.publishExpanded(ctx, parent, resp)

	return resp, nil
}

// buildRule собирает правило повторения из полей родителя серии
func buildRule(parent *domain.Booking) (recurrence.Rule, error) {
	var rule recurrence.Rule

	if parent.RepeatFrequency == nil || parent.RecurrenceEndType == nil {
		return rule, fmt.Errorf("%w: recurrence fields are incomplete", ErrRuleInvalid)
	}

	weekdays := make([]time.Weekday, 0, len(parent.RepeatOnDaysOfWeek))
	for _, name := range parent.RepeatOnDaysOfWeek {
		d, ok := domain.ParseWeekday(name)
		if !ok {
			return rule, fmt.Errorf("%w: unknown weekday %q", ErrRuleInvalid, name)
		}
		weekdays = append(weekdays, d)
	}

	rule = recurrence.Rule{
		Frequency: recurrence.Frequency(*parent.RepeatFrequency),
		Interval:  parent.RepeatInterval,
		Weekdays:  weekdays,
		EndType:   recurrence.EndType(*parent.RecurrenceEndType),
	}
	if parent.RepeatOnDayOfMonth != nil {
		rule.DayOfMonth = *parent.RepeatOnDayOfMonth
	}
	if parent.RecurrenceEndDate != nil {
		rule.EndDate = *parent.RecurrenceEndDate
	}
	if parent.RecurrenceOccurrences != nil {
		rule.Count = *parent.RecurrenceOccurrences
	}

	if err := rule.Validate(); err != nil {
		return rule, fmt.Errorf("%w: %v", ErrRuleInvalid, err)
	}

	return rule, nil
}

// publishExpanded отправляет recurrence.expanded; ошибки публикации только
// логируются
func (uc *UseCase) publishExpanded(ctx context.Context, parent *domain.Booking, resp *Response) {
	createdIDs := make([]string, 0, len(resp.Created))
	for _, c := range resp.Created {
		createdIDs = append(createdIDs, c.ID)
	}
	skipped := make([]string, 0, len(resp.Skipped))
	for _, d := range resp.Skipped {
		skipped = append(skipped, d.Format(domain.DateFormat))
	}

	event := events.RecurrenceEvent{
		ParentBookingID: parent.ID,
		TenantID:        parent.TenantID,
		AmenityID:       parent.AmenityID,
		CreatedIDs:      createdIDs,
		SkippedDates:    skipped,
		Errors:          resp.Errors,
		OccurredAt:      uc.timeProvider.Now().UTC(),
	}
	if err := uc.publisher.PublishJSON(ctx, events.RoutingRecurrenceCreated, event); err != nil {
		uc.logger.Error("ExpandRecurrence: failed to publish %s: %v", events.RoutingRecurrenceCreated, err)
	}
}
