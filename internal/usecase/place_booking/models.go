package place_booking

import (
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// Request модель запроса на размещение бронирования
type Request struct {
	AmenityID       string
	TenantID        string
	BookingDate     time.Time
	StartTime       types.TimeString
	EndTime         types.TimeString
	SelectedSlotIDs []string // опционально: явные слоты, должны входить в пересечение
	Notes           *string

	// Поля повторяющейся серии (опционально)
	IsRecurring           bool
	RepeatFrequency       *domain.RecurringFrequency
	RepeatInterval        int
	RepeatOnDaysOfWeek    []string
	RepeatOnDayOfMonth    *int
	RecurrenceEndType     *domain.RecurrenceEndType
	RecurrenceEndDate     *time.Time
	RecurrenceOccurrences *int
}

// ChildRequest запрос на размещение инстанса серии (вызывается экспандером)
type ChildRequest struct {
	Parent             *domain.Booking
	BookingDate        time.Time
	StartTime          types.TimeString
	EndTime            types.TimeString
	OccurrenceDate     time.Time
	RecurrenceSequence int
}

// Response модель ответа с размещенным бронированием
type Response struct {
	ID              string
	DisplayID       string
	AmenityID       string
	TenantID        string
	BookingDate     time.Time
	StartTime       types.TimeString
	EndTime         types.TimeString
	Status          string
	SelectedSlotIDs []string
	Notes           *string
	IsRecurring     bool
	RequestedOn     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
