package recurrence

import (
	"context"
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// AmenityRepository интерфейс репозитория amenities
type AmenityRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Amenity, error)
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error)
	ListChildren(ctx context.Context, filter domain.ChildrenFilter) ([]*domain.Booking, error)
	Cancel(ctx context.Context, id string, reason string) error
	UpdateSchedule(ctx context.Context, id string, date time.Time, start, end types.TimeString, slotIDs []string) error
	UpdateNotes(ctx context.Context, id string, notes *string) error
}

// ExceptionRepository интерфейс репозитория исключений серии
type ExceptionRepository interface {
	Create(ctx context.Context, e *domain.RecurrenceException) (*domain.RecurrenceException, error)
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Slot, error)
	FindOverlapping(ctx context.Context, amenityID string, date time.Time, start, end types.TimeString) ([]*domain.Slot, error)
	IncrementBookings(ctx context.Context, id string) error
	DecrementBookings(ctx context.Context, id string, covered bool) error
}

// BlackoutRepository интерфейс репозитория blackout-периодов
type BlackoutRepository interface {
	ListActiveOnDate(ctx context.Context, amenityID string, date time.Time) ([]*domain.BlackoutPeriod, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher интерфейс публикации доменных событий
type EventPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, payload any) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
