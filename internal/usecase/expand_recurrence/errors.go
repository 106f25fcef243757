package expand_recurrence

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("expand_recurrence: invalid input data")

	// ErrBookingNotFound возвращается, когда родитель серии не найден
	ErrBookingNotFound = errors.New("expand_recurrence: booking not found")

	// ErrNotRecurrenceParent возвращается, когда бронирование не является
	// родителем серии
	ErrNotRecurrenceParent = errors.New("expand_recurrence: booking is not a recurrence parent")

	// ErrRuleInvalid возвращается при некорректных полях повторения родителя
	ErrRuleInvalid = errors.New("expand_recurrence: invalid recurrence rule")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("expand_recurrence: internal error")
)
