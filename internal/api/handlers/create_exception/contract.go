package create_exception

import (
	"context"

	"github.com/helixcare/Resido-AmenityService/internal/service/recurrence/models"
)

type RecurrenceService interface {
	CreateException(ctx context.Context, parentID string, req *models.CreateExceptionRequest) (*models.ExceptionResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
