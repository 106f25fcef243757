package place_booking

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("place_booking: invalid input data")

	// ErrAmenityNotFound возвращается, когда amenity не найден или выключен
	ErrAmenityNotFound = errors.New("place_booking: amenity not found")

	// ErrOutsideOperatingWindow возвращается, когда запрошенный интервал
	// выходит за рабочие часы amenity или попадает в walk-in окно
	ErrOutsideOperatingWindow = errors.New("place_booking: requested range is outside the operating window")

	// ErrHolidayConflict возвращается, когда дата является праздником
	ErrHolidayConflict = errors.New("place_booking: date is a configured holiday")

	// ErrBlackoutConflict возвращается, когда интервал накрыт blackout-периодом
	ErrBlackoutConflict = errors.New("place_booking: requested range falls in a blackout period")

	// ErrSlotUnavailable возвращается, когда подходящих слотов нет или
	// вместимость исчерпана
	ErrSlotUnavailable = errors.New("place_booking: no available slot for the requested range")

	// ErrSlotContention возвращается при исчерпании бюджета повторов
	// конкурентной транзакции
	ErrSlotContention = errors.New("place_booking: slot contention retries exhausted")

	// ErrInvalidSlotID возвращается, когда клиентский slot id не входит
	// в набор пересекающихся слотов
	ErrInvalidSlotID = errors.New("place_booking: supplied slot id does not match the requested range")

	// ErrRuleInvalid возвращается при некорректных полях повторения
	ErrRuleInvalid = errors.New("place_booking: invalid recurrence rule")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("place_booking: internal error")
)
