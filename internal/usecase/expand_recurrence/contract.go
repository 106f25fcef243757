package expand_recurrence

import (
	"context"
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/internal/usecase/place_booking"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListChildren(ctx context.Context, filter domain.ChildrenFilter) ([]*domain.Booking, error)
}

// ExceptionRepository интерфейс репозитория исключений серий
type ExceptionRepository interface {
	ListByParent(ctx context.Context, parentID string) ([]*domain.RecurrenceException, error)
}

// ChildPlacer размещает инстанс серии по правилам координатора
type ChildPlacer interface {
	PlaceChild(ctx context.Context, req *place_booking.ChildRequest) (*domain.Booking, error)
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
