package generate_slots

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

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	Create(ctx context.Context, s *domain.Slot) (*domain.Slot, error)
	GetByKey(ctx context.Context, amenityID string, date time.Time, start types.TimeString) (*domain.Slot, error)
	SetAvailability(ctx context.Context, id string, available bool) error
	CountBookedInRange(ctx context.Context, amenityID string, from, to time.Time) (int, error)
	DeleteRange(ctx context.Context, amenityID string, from, to time.Time) (int64, error)
}

// BlackoutRepository интерфейс репозитория blackout-периодов
type BlackoutRepository interface {
	ListActiveInRange(ctx context.Context, amenityID string, from, to time.Time) ([]*domain.BlackoutPeriod, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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
