package generate_slots

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("generate_slots: invalid input data")

	// ErrAmenityNotFound возвращается, когда amenity не найден или выключен
	ErrAmenityNotFound = errors.New("generate_slots: amenity not found")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("generate_slots: internal error")
)
