package bookings

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("bookings: booking not found")

	// ErrAmenityNotFound возвращается, когда amenity не найден или выключен
	ErrAmenityNotFound = errors.New("bookings: amenity not found")

	// ErrAccessDenied возвращается, когда бронирование принадлежит другому
	// резиденту
	ErrAccessDenied = errors.New("bookings: access denied")

	// ErrIllegalStateTransition возвращается, когда статус бронирования
	// не допускает операцию
	ErrIllegalStateTransition = errors.New("bookings: illegal state transition")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("bookings: invalid input data")

	// ErrInvalidStatus возвращается при неизвестном статусе в фильтре
	ErrInvalidStatus = errors.New("bookings: invalid booking status")

	// ErrOutsideOperatingWindow возвращается, когда новый интервал выходит
	// за рабочие часы amenity или попадает в walk-in окно
	ErrOutsideOperatingWindow = errors.New("bookings: requested range is outside the operating window")

	// ErrHolidayConflict возвращается, когда новая дата является праздником
	ErrHolidayConflict = errors.New("bookings: date is a configured holiday")

	// ErrBlackoutConflict возвращается, когда новый интервал накрыт
	// blackout-периодом
	ErrBlackoutConflict = errors.New("bookings: requested range falls in a blackout period")

	// ErrSlotUnavailable возвращается, когда подходящих слотов нет или
	// вместимость исчерпана
	ErrSlotUnavailable = errors.New("bookings: no available slot for the requested range")

	// ErrSlotContention возвращается при исчерпании бюджета повторов
	// конкурентной транзакции
	ErrSlotContention = errors.New("bookings: slot contention retries exhausted")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("bookings: internal error")
)
