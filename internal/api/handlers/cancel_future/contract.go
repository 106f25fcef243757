package cancel_future

import (
	"context"

	"github.com/helixcare/Resido-AmenityService/internal/service/recurrence/models"
)

type RecurrenceService interface {
	CancelFuture(ctx context.Context, parentID string, req *models.CancelFutureRequest) (*models.CancelFutureResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
