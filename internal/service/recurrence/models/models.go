package models

import (
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// Request модели

// CreateExceptionRequest запрос на создание исключения для вхождения серии
type CreateExceptionRequest struct {
	OccurrenceDate time.Time         `json:"occurrenceDate"`
	ExceptionType  string            `json:"exceptionType"` // skip | cancel | modify
	NewBookingDate *time.Time        `json:"newBookingDate,omitempty"`
	NewStartTime   *types.TimeString `json:"newStartTime,omitempty"`
	NewEndTime     *types.TimeString `json:"newEndTime,omitempty"`
	Reason         string            `json:"reason"`
	ModifiedBy     *string           `json:"modifiedBy,omitempty"`
}

// CancelFutureRequest запрос на отмену будущих вхождений серии
type CancelFutureRequest struct {
	FromDate time.Time `json:"fromDate"`
	Reason   string    `json:"reason"`
}

// UpdateChildrenRequest запрос на массовое обновление активных вхождений
type UpdateChildrenRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// Response модели

// ExceptionResponse ответ с данными исключения
type ExceptionResponse struct {
	ID              string  `json:"id"`
	DisplayID       string  `json:"displayId"`
	ParentBookingID string  `json:"parentBookingId"`
	OccurrenceDate  string  `json:"occurrenceDate"` // "2025-10-15"
	ExceptionType   string  `json:"exceptionType"`
	NewBookingDate  *string `json:"newBookingDate,omitempty"`
	NewStartTime    *string `json:"newStartTime,omitempty"`
	NewEndTime      *string `json:"newEndTime,omitempty"`
	Reason          string  `json:"reason,omitempty"`

	// ID уже материализованного вхождения, затронутого исключением
	AffectedBookingID *string `json:"affectedBookingId,omitempty"`

	CreatedAt string `json:"createdAt"`
}

// CancelFutureResponse результат отмены будущих вхождений.
// Errors содержит вхождения, которые отменить не удалось
type CancelFutureResponse struct {
	CancelledCount int      `json:"cancelledCount"`
	CancelledIDs   []string `json:"cancelledIds"`
	Errors         []string `json:"errors,omitempty"`
}

// UpdateChildrenResponse результат массового обновления вхождений
type UpdateChildrenResponse struct {
	UpdatedCount int      `json:"updatedCount"`
	UpdatedIDs   []string `json:"updatedIds"`
}

// FromDomainException конвертирует domain исключение в response
func FromDomainException(e *domain.RecurrenceException, affectedBookingID *string) *ExceptionResponse {
	resp := &ExceptionResponse{
		ID:                e.ID,
		DisplayID:         e.DisplayID,
		ParentBookingID:   e.ParentBookingID,
		OccurrenceDate:    e.OccurrenceDate.Format(domain.DateFormat),
		ExceptionType:     string(e.ExceptionType),
		Reason:            e.Reason,
		AffectedBookingID: affectedBookingID,
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
	}

	if e.NewBookingDate != nil {
		d := e.NewBookingDate.Format(domain.DateFormat)
		resp.NewBookingDate = &d
	}
	if e.NewStartTime != nil {
		s := string(*e.NewStartTime)
		resp.NewStartTime = &s
	}
	if e.NewEndTime != nil {
		s := string(*e.NewEndTime)
		resp.NewEndTime = &s
	}

	return resp
}
