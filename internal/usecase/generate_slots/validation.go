package generate_slots

import (
	"fmt"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.AmenityID == "" {
		return fmt.Errorf("%w: amenityID is required", ErrInvalidInput)
	}

	if req.FromDate.IsZero() || req.ToDate.IsZero() {
		return fmt.Errorf("%w: fromDate and toDate are required", ErrInvalidInput)
	}

	if req.ToDate.Before(req.FromDate) {
		return fmt.Errorf("%w: toDate must not precede fromDate", ErrInvalidInput)
	}

	days := int(domain.DateOnly(req.ToDate).Sub(domain.DateOnly(req.FromDate)).Hours()/24) + 1
	if days > domain.MaxGenerationRangeDays {
		return fmt.Errorf("%w: date range exceeds %d days", ErrInvalidInput, domain.MaxGenerationRangeDays)
	}

	if req.IntervalMinutes < 0 {
		return fmt.Errorf("%w: intervalMinutes must not be negative", ErrInvalidInput)
	}
	if req.IntervalMinutes != 0 &&
		(req.IntervalMinutes < domain.MinSlotIntervalMinutes || req.IntervalMinutes > domain.MaxSlotIntervalMinutes) {
		return fmt.Errorf("%w: intervalMinutes must be between %d and %d",
			ErrInvalidInput, domain.MinSlotIntervalMinutes, domain.MaxSlotIntervalMinutes)
	}

	if req.Capacity < 0 {
		return fmt.Errorf("%w: capacity must not be negative", ErrInvalidInput)
	}
	if req.Capacity > domain.MaxConcurrencyCap {
		return fmt.Errorf("%w: capacity must not exceed %d", ErrInvalidInput, domain.MaxConcurrencyCap)
	}

	return nil
}
