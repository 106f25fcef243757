package get_available_slots

import (
	"fmt"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.AmenityID == "" {
		return fmt.Errorf("%w: amenityID is required", ErrInvalidInput)
	}

	if req.Date == nil && (req.FromDate == nil || req.ToDate == nil) {
		return fmt.Errorf("%w: date or fromDate/toDate range is required", ErrInvalidInput)
	}

	if req.Date != nil && (req.FromDate != nil || req.ToDate != nil) {
		return fmt.Errorf("%w: date and range are mutually exclusive", ErrInvalidInput)
	}

	if req.FromDate != nil && req.ToDate != nil && req.ToDate.Before(*req.FromDate) {
		return fmt.Errorf("%w: toDate must not precede fromDate", ErrInvalidInput)
	}

	if req.StartTime != nil {
		if err := req.StartTime.Validate(); err != nil {
			return fmt.Errorf("%w: invalid startTime format: %v", ErrInvalidInput, err)
		}
	}
	if req.EndTime != nil {
		if err := req.EndTime.Validate(); err != nil {
			return fmt.Errorf("%w: invalid endTime format: %v", ErrInvalidInput, err)
		}
	}
	if req.StartTime != nil && req.EndTime != nil && !req.StartTime.IsBefore(*req.EndTime) {
		return fmt.Errorf("%w: endTime must be after startTime", ErrInvalidInput)
	}

	return nil
}
