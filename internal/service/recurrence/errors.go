package recurrence

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("recurrence: invalid input data")

	// ErrBookingNotFound возвращается, когда родительское бронирование
	// не найдено
	ErrBookingNotFound = errors.New("recurrence: booking not found")

	// ErrNotRecurrenceParent возвращается, когда бронирование не является
	// родителем серии
	ErrNotRecurrenceParent = errors.New("recurrence: booking is not a recurrence parent")

	// ErrExceptionConflict возвращается, когда для вхождения уже существует
	// исключение
	ErrExceptionConflict = errors.New("recurrence: exception already exists for this occurrence")

	// ErrAmenityNotFound возвращается, когда amenity не найден
	ErrAmenityNotFound = errors.New("recurrence: amenity not found")

	// ErrOutsideOperatingWindow возвращается, когда новый интервал modify
	// исключения выходит за рабочие часы или попадает в walk-in окно
	ErrOutsideOperatingWindow = errors.New("recurrence: requested range is outside the operating window")

	// ErrHolidayConflict возвращается, когда новая дата является праздником
	ErrHolidayConflict = errors.New("recurrence: date is a configured holiday")

	// ErrBlackoutConflict возвращается, когда новый интервал накрыт
	// blackout-периодом
	ErrBlackoutConflict = errors.New("recurrence: requested range falls in a blackout period")

	// ErrSlotUnavailable возвращается, когда подходящих слотов нет или
	// вместимость исчерпана
	ErrSlotUnavailable = errors.New("recurrence: no available slot for the requested range")

	// ErrSlotContention возвращается при исчерпании бюджета повторов
	// конкурентной транзакции
	ErrSlotContention = errors.New("recurrence: slot contention retries exhausted")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("recurrence: internal error")
)
