package place_booking

import (
	"fmt"
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/internal/recurrence"
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.AmenityID == "" {
		return fmt.Errorf("%w: amenityID is required", ErrInvalidInput)
	}
	if req.TenantID == "" {
		return fmt.Errorf("%w: tenantID is required", ErrInvalidInput)
	}
	if req.BookingDate.IsZero() {
		return fmt.Errorf("%w: bookingDate is required", ErrInvalidInput)
	}

	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
	}
	if err := req.EndTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid endTime format: %v", ErrInvalidInput, err)
	}

	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes must not exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	return nil
}

// validateTemporal проверяет здравость интервала и даты
func validateTemporal(date time.Time, start, end types.TimeString, now time.Time, lookbackDays int) error {
	if !start.IsBefore(end) {
		return fmt.Errorf("%w: endTime must be after startTime", ErrInvalidInput)
	}

	// Дата не раньше сегодня минус lookback (lookback 0 = с сегодняшнего дня)
	earliest := domain.DateOnly(now).AddDate(0, 0, -lookbackDays)
	if domain.DateOnly(date).Before(earliest) {
		return fmt.Errorf("%w: bookingDate is in the past", ErrInvalidInput)
	}

	return nil
}

// validatePolicy проверяет рабочее окно, праздники и walk-in расписание
func validatePolicy(amenity *domain.Amenity, date time.Time, start, end types.TimeString) error {
	if !amenity.WithinOperatingWindow(start, end) {
		return ErrOutsideOperatingWindow
	}

	if amenity.IsHoliday(date) {
		return ErrHolidayConflict
	}

	// Walk-in окно открыто для посещения, но не резервируется
	if w, ok := amenity.WalkInSchedule.WindowFor(date); ok && w.Intersects(start, end) {
		return fmt.Errorf("%w: range intersects the walk-in window %s-%s",
			ErrOutsideOperatingWindow, w.StartTime, w.EndTime)
	}

	return nil
}

// buildRule собирает правило повторения из полей запроса
func buildRule(req *Request) (recurrence.Rule, error) {
	var rule recurrence.Rule

	if req.RepeatFrequency == nil {
		return rule, fmt.Errorf("%w: repeatFrequency is required for recurring bookings", ErrRuleInvalid)
	}
	if req.RecurrenceEndType == nil {
		return rule, fmt.Errorf("%w: recurrenceEndType is required for recurring bookings", ErrRuleInvalid)
	}

	weekdays := make([]time.Weekday, 0, len(req.RepeatOnDaysOfWeek))
	for _, name := range req.RepeatOnDaysOfWeek {
		d, ok := domain.ParseWeekday(name)
		if !ok {
			return rule, fmt.Errorf("%w: unknown weekday %q", ErrRuleInvalid, name)
		}
		weekdays = append(weekdays, d)
	}

	interval := req.RepeatInterval
	if interval == 0 {
		interval = 1
	}

	rule = recurrence.Rule{
		Frequency: recurrence.Frequency(*req.RepeatFrequency),
		Interval:  interval,
		Weekdays:  weekdays,
		EndType:   recurrence.EndType(*req.RecurrenceEndType),
	}
	if req.RepeatOnDayOfMonth != nil {
		rule.DayOfMonth = *req.RepeatOnDayOfMonth
	}
	if req.RecurrenceEndDate != nil {
		rule.EndDate = *req.RecurrenceEndDate
	}
	if req.RecurrenceOccurrences != nil {
		rule.Count = *req.RecurrenceOccurrences
	}

	if err := rule.Validate(); err != nil {
		return rule, fmt.Errorf("%w: %v", ErrRuleInvalid, err)
	}

	return rule, nil
}
