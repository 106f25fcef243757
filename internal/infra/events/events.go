package events

import "time"

// Ключи маршрутизации topic-exchange
const (
	RoutingBookingPlaced     = "booking.placed"
	RoutingBookingConfirmed  = "booking.confirmed"
	RoutingBookingRejected   = "booking.rejected"
	RoutingBookingCancelled  = "booking.cancelled"
	RoutingBookingModified   = "booking.modified"
	RoutingBookingCompleted  = "booking.completed"
	RoutingRecurrenceCreated = "recurrence.expanded"
	RoutingSlotsRegenerated  = "slots.regenerated"
)

// BookingEvent is published on every booking lifecycle transition.
type BookingEvent struct {
	BookingID   string    `json:"booking_id"`
	DisplayID   string    `json:"display_id"`
	TenantID    string    `json:"tenant_id"`
	AmenityID   string    `json:"amenity_id"`
	Status      string    `json:"status"`
	BookingDate string    `json:"booking_date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	SlotIDs     []string  `json:"affected_slot_ids"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// RecurrenceEvent is published when a recurrence series is expanded.
type RecurrenceEvent struct {
	ParentBookingID string    `json:"parent_booking_id"`
	TenantID        string    `json:"tenant_id"`
	AmenityID       string    `json:"amenity_id"`
	CreatedIDs      []string  `json:"created_ids"`
	SkippedDates    []string  `json:"skipped_dates"`
	Errors          []string  `json:"errors,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// SlotsEvent is published when an amenity's slot inventory is regenerated.
type SlotsEvent struct {
	AmenityID    string    `json:"amenity_id"`
	FromDate     string    `json:"from_date"`
	ToDate       string    `json:"to_date"`
	SlotsCreated int       `json:"slots_created"`
	SlotsUpdated int       `json:"slots_updated"`
	Errors       []string  `json:"errors,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
