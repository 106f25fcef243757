package domain

// Default configuration values
const (
	DefaultSlotIntervalMinutes   = 60
	DefaultConcurrencyCap        = 1
	DefaultBookingLookbackDays   = 0 // 0 = бронировать можно начиная с сегодня
	DefaultSlotContentionRetries = 3
	DefaultSlotHorizonDays       = 30 // генерация без to_date покрывает этот горизонт
)

// Business validation constants
const (
	MinSlotIntervalMinutes      = 5
	MaxSlotIntervalMinutes      = 480 // 8 часов
	MinConcurrencyCap           = 1
	MaxConcurrencyCap           = 100
	MaxGenerationRangeDays      = 366
	MaxNotesLength              = 500
	MaxCancellationReasonLength = 500
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// Display ID prefixes
const (
	SlotDisplayPrefix      = "SLOT"
	BlackoutDisplayPrefix  = "BLKOUT"
	BookingDisplayPrefix   = "BKG"
	ExceptionDisplayPrefix = "REXC"
)

// TerminalStatuses список терминальных статусов бронирования
// Из терминального статуса переходы запрещены
var TerminalStatuses = []BookingStatus{
	StatusCancelled,
	StatusRejected,
	StatusCompleted,
}

// ActiveStatuses список статусов, при которых бронирование удерживает
// вместимость слотов
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
}
