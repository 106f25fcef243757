package expand_recurrence

import (
	"time"

	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// Request модель запроса на материализацию серии
type Request struct {
	ParentBookingID string
}

// CreatedView созданный инстанс серии
type CreatedView struct {
	ID                 string
	DisplayID          string
	BookingDate        time.Time
	StartTime          types.TimeString
	EndTime            types.TimeString
	RecurrenceSequence int
}

// Response результат материализации
// Created упорядочен хронологически; Skipped - даты вхождений с
// skip/cancel исключениями; Kept - даты, на которые инстанс уже существовал
type Response struct {
	ParentBookingID string
	Created         []CreatedView
	Skipped         []time.Time
	Kept            []time.Time
	Errors          []string
}
