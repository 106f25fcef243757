package models

import (
	"errors"
	"time"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// CancelBookingRequest запрос на отмену бронирования
type CancelBookingRequest struct {
	TenantID           string `json:"tenantId"`
	CancellationReason string `json:"cancellationReason"`
}

// RejectBookingRequest запрос на отклонение бронирования
type RejectBookingRequest struct {
	RejectionReason  string  `json:"rejectionReason"`
	RejectionRemarks *string `json:"rejectionRemarks,omitempty"`
}

// ModifyBookingRequest запрос на изменение бронирования
// Неуказанные поля сохраняют текущие значения
type ModifyBookingRequest struct {
	TenantID    string            `json:"tenantId"`
	BookingDate *time.Time        `json:"bookingDate,omitempty"`
	StartTime   *types.TimeString `json:"startTime,omitempty"`
	EndTime     *types.TimeString `json:"endTime,omitempty"`
	Notes       *string           `json:"notes,omitempty"`
}

// GetTenantBookingsRequest запрос бронирований резидента
type GetTenantBookingsRequest struct {
	TenantID string  `json:"tenantId"`
	Status   *string `json:"status,omitempty"`
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID              string   `json:"id"`
	DisplayID       string   `json:"displayId"`
	AmenityID       string   `json:"amenityId"`
	TenantID        string   `json:"tenantId"`
	BookingDate     string   `json:"bookingDate"` // "2025-10-15"
	StartTime       string   `json:"startTime"`   // "10:00"
	EndTime         string   `json:"endTime"`     // "11:00"
	Status          string   `json:"status"`
	SelectedSlotIDs []string `json:"selectedSlotIds"`
	Notes           *string  `json:"notes,omitempty"`

	IsRecurring        bool    `json:"isRecurring"`
	ParentBookingID    *string `json:"parentBookingId,omitempty"`
	OccurrenceDate     *string `json:"occurrenceDate,omitempty"`
	RecurrenceSequence *int    `json:"recurrenceSequence,omitempty"`

	RejectionReason    *string `json:"rejectionReason,omitempty"`
	CancellationReason *string `json:"cancellationReason,omitempty"`

	RequestedOn string  `json:"requestedOn"`
	ConfirmedOn *string `json:"confirmedOn,omitempty"`
	RejectedOn  *string `json:"rejectedOn,omitempty"`
	CancelledOn *string `json:"cancelledOn,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// BookingListResponse список бронирований
type BookingListResponse struct {
	Bookings []*BookingResponse `json:"bookings"`
	Total    int                `json:"total"`
}

// ToDomainBookingStatus конвертирует строку в domain статус
func ToDomainBookingStatus(s string) (domain.BookingStatus, error) {
	switch domain.BookingStatus(s) {
	case domain.StatusPending, domain.StatusConfirmed, domain.StatusRejected,
		domain.StatusCancelled, domain.StatusCompleted:
		return domain.BookingStatus(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// FromDomainBooking конвертирует domain бронирование в response
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	resp := &BookingResponse{
		ID:                 b.ID,
		DisplayID:          b.DisplayID,
		AmenityID:          b.AmenityID,
		TenantID:           b.TenantID,
		BookingDate:        b.BookingDate.Format(domain.DateFormat),
		StartTime:          string(b.StartTime),
		EndTime:            string(b.EndTime),
		Status:             string(b.Status),
		SelectedSlotIDs:    b.SelectedSlotIDs,
		Notes:              b.Notes,
		IsRecurring:        b.IsRecurring,
		ParentBookingID:    b.ParentBookingID,
		RecurrenceSequence: b.RecurrenceSequence,
		RejectionReason:    b.RejectionReason,
		CancellationReason: b.CancellationReason,
		RequestedOn:        b.RequestedOn.Format(time.RFC3339),
		CreatedAt:          b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          b.UpdatedAt.Format(time.RFC3339),
	}

	if b.OccurrenceDate != nil {
		d := b.OccurrenceDate.Format(domain.DateFormat)
		resp.OccurrenceDate = &d
	}
	if b.ConfirmedOn != nil {
		t := b.ConfirmedOn.Format(time.RFC3339)
		resp.ConfirmedOn = &t
	}
	if b.RejectedOn != nil {
		t := b.RejectedOn.Format(time.RFC3339)
		resp.RejectedOn = &t
	}
	if b.CancelledOn != nil {
		t := b.CancelledOn.Format(time.RFC3339)
		resp.CancelledOn = &t
	}

	return resp
}

// FromDomainBookingList конвертирует список domain бронирований в response
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	out := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, FromDomainBooking(b))
	}
	return &BookingListResponse{Bookings: out, Total: len(out)}
}
