package generate_slots

import (
	"time"

	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// Request модель запроса на генерацию слотов
type Request struct {
	AmenityID       string    // ID amenity
	FromDate        time.Time // Начало диапазона (включительно)
	ToDate          time.Time // Конец диапазона (включительно)
	IntervalMinutes int       // Длина слота; 0 = slot_interval_minutes amenity
	Capacity        int       // Вместимость слота; 0 = concurrency_cap amenity
	DeleteExisting  bool      // Удалить слоты диапазона перед генерацией
}

// SlotView слот в ответе генератора
type SlotView struct {
	ID          string
	DisplayID   string
	SlotDate    time.Time
	StartTime   types.TimeString
	EndTime     types.TimeString
	IsAvailable bool
}

// Response модель ответа генератора
// Created и Updated упорядочены по (дата, время начала)
type Response struct {
	AmenityID string
	FromDate  time.Time
	ToDate    time.Time
	Created   []SlotView
	Updated   []SlotView
	Errors    []string // ошибки по отдельным дням, не фатальные
}
