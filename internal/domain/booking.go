package domain

import (
	"time"

	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// BookingStatus represents the status of an amenity booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"   // запрошено резидентом, ждет подтверждения
	StatusConfirmed BookingStatus = "confirmed" // подтверждено администрацией
	StatusRejected  BookingStatus = "rejected"  // отклонено администрацией
	StatusCancelled BookingStatus = "cancelled" // отменено
	StatusCompleted BookingStatus = "completed" // дата и время окончания прошли
)

// RecurringFrequency частота повторения родительского бронирования
type RecurringFrequency string

const (
	FrequencyWeekly   RecurringFrequency = "weekly"
	FrequencyBiweekly RecurringFrequency = "biweekly"
	FrequencyMonthly  RecurringFrequency = "monthly"
	FrequencyCustom   RecurringFrequency = "custom" // каждые N дней
)

// RecurrenceEndType способ завершения серии
type RecurrenceEndType string

const (
	EndOnDate           RecurrenceEndType = "on_date"
	EndAfterOccurrences RecurrenceEndType = "after_occurrences"
)

// Booking represents an amenity booking. A booking is either a single
// reservation, a recurrence parent defining a series, or a child instance
// materialized from a parent.
type Booking struct {
	ID              string
	DisplayID       string
	AmenityID       string
	TenantID        string
	BookingDate     time.Time
	StartTime       types.TimeString
	EndTime         types.TimeString
	Status          BookingStatus
	Notes           *string
	SelectedSlotIDs []string // слоты, у которых занята вместимость, по порядку начала

	// Recurrence
	IsRecurring        bool
	ParentBookingID    *string
	OccurrenceDate     *time.Time
	RecurrenceSequence *int

	// Поля родителя серии (заполнены только при IsRecurring)
	RepeatFrequency       *RecurringFrequency
	RepeatInterval        int
	RepeatOnDaysOfWeek    []string // weekly/biweekly: ["monday", "friday"]
	RepeatOnDayOfMonth    *int     // monthly: 1-31
	RecurrenceEndType     *RecurrenceEndType
	RecurrenceEndDate     *time.Time
	RecurrenceOccurrences *int

	RejectionReason    *string
	RejectionRemarks   *string
	CancellationReason *string

	RequestedOn time.Time
	ConfirmedOn *time.Time
	RejectedOn  *time.Time
	CancelledOn *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal returns true if no further status transitions are allowed.
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCancelled || b.Status == StatusRejected || b.Status == StatusCompleted
}

// IsActive returns true while the booking holds slot capacity.
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// CanBeCancelled returns true if the booking may transition to cancelled.
func (b *Booking) CanBeCancelled() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// CanBeConfirmed returns true if the booking may transition to confirmed.
func (b *Booking) CanBeConfirmed() bool {
	return b.Status == StatusPending
}

// CanBeRejected returns true if the booking may transition to rejected.
func (b *Booking) CanBeRejected() bool {
	return b.Status == StatusPending
}

// CanBeCompleted returns true if the booking may transition to completed.
func (b *Booking) CanBeCompleted() bool {
	return b.Status == StatusConfirmed
}

// IsRecurrenceParent returns true if this booking defines a series.
func (b *Booking) IsRecurrenceParent() bool {
	return b.IsRecurring && b.ParentBookingID == nil
}

// IsChildInstance returns true if this booking was materialized from a parent.
func (b *Booking) IsChildInstance() bool {
	return b.ParentBookingID != nil
}

// EndsBy reports whether the booking's end moment, evaluated in loc,
// is strictly before now. Used for the confirmed -> completed transition.
func (b *Booking) EndsBy(now time.Time, loc *time.Location) bool {
	end, err := b.EndTime.On(b.BookingDate, loc)
	if err != nil {
		return false
	}
	return end.Before(now)
}

// ChildrenFilter фильтр выборки инстансов серии
type ChildrenFilter struct {
	ParentBookingID string
	FromDate        *time.Time // booking_date >= FromDate
	ToDate          *time.Time // booking_date <= ToDate
	OnlyActive      bool       // только pending/confirmed
}
