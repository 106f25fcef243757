package exception

import "errors"

var (
	// ErrExceptionNotFound возвращается, когда исключение не найдено
	ErrExceptionNotFound = errors.New("exception.repository: recurrence exception not found")

	// ErrExceptionExists возвращается при нарушении уникальности
	// (parent_booking_id, occurrence_date)
	ErrExceptionExists = errors.New("exception.repository: exception already exists for occurrence")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("exception.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("exception.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("exception.repository: failed to scan row")
)
