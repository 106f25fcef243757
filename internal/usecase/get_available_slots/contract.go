package get_available_slots

import (
	"context"
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
)

// AmenityRepository интерфейс репозитория amenities
type AmenityRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Amenity, error)
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	ListWithFilter(ctx context.Context, filter domain.SlotFilter) ([]*domain.Slot, error)
}

// BlackoutRepository интерфейс репозитория blackout-периодов
type BlackoutRepository interface {
	ListActiveInRange(ctx context.Context, amenityID string, from, to time.Time) ([]*domain.BlackoutPeriod, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
