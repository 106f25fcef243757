package domain

import (
	"time"

	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// ExceptionType тип исключения для конкретного вхождения серии
type ExceptionType string

const (
	ExceptionSkip   ExceptionType = "skip"   // вхождение пропускается
	ExceptionCancel ExceptionType = "cancel" // вхождение пропускается (семантика отмены)
	ExceptionModify ExceptionType = "modify" // вхождение создается с измененными полями
)

// RecurrenceException represents a per-occurrence override of a recurrence
// parent. Unique per (parent_booking_id, occurrence_date).
type RecurrenceException struct {
	ID              string
	DisplayID       string
	ParentBookingID string
	OccurrenceDate  time.Time
	ExceptionType   ExceptionType

	// Только для modify; для skip/cancel не читаются
	NewBookingDate *time.Time
	NewStartTime   *types.TimeString
	NewEndTime     *types.TimeString

	Reason     string
	ModifiedBy *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Suppresses returns true if the exception removes the occurrence from the
// series (skip and cancel behave identically at expansion time).
func (e *RecurrenceException) Suppresses() bool {
	return e.ExceptionType == ExceptionSkip || e.ExceptionType == ExceptionCancel
}

// HasOverrides returns true if at least one new_* field is set.
// Required for modify exceptions.
func (e *RecurrenceException) HasOverrides() bool {
	return e.NewBookingDate != nil || e.NewStartTime != nil || e.NewEndTime != nil
}
