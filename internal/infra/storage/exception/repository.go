package exception

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/pkg/dbmetrics"
	"github.com/helixcare/Resido-AmenityService/pkg/displayid"
	"github.com/helixcare/Resido-AmenityService/pkg/psqlbuilder"
)

// Код ошибки Postgres для нарушения unique constraint
const pqUniqueViolation = "23505"

// Repository репозиторий для работы с исключениями серий
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория исключений
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

var exceptionColumns = []string{
	"id",
	"display_id",
	"parent_booking_id",
	"occurrence_date",
	"exception_type",
	"new_booking_date",
	"new_start_time",
	"new_end_time",
	"reason",
	"modified_by",
	"created_at",
	"updated_at",
}

// Create создает исключение для вхождения серии.
// На пару (parent_booking_id, occurrence_date) допускается не больше
// одного исключения - нарушение уникальности мапится в ErrExceptionExists.
func (r *Repository) Create(ctx context.Context, e *domain.RecurrenceException) (*domain.RecurrenceException, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.DisplayID == "" {
		e.DisplayID = displayid.New(domain.ExceptionDisplayPrefix)
	}

	query, args, err := psqlbuilder.Insert("recurrence_exceptions").
		Columns(
			"id",
			"display_id",
			"parent_booking_id",
			"occurrence_date",
			"exception_type",
			"new_booking_date",
			"new_start_time",
			"new_end_time",
			"reason",
			"modified_by",
		).
		Values(
			e.ID,
			e.DisplayID,
			e.ParentBookingID,
			e.OccurrenceDate,
			e.ExceptionType,
			e.NewBookingDate,
			e.NewStartTime,
			e.NewEndTime,
			e.Reason,
			e.ModifiedBy,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return nil, ErrExceptionExists
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	e.CreatedAt = createdAt.Time
	e.UpdatedAt = updatedAt.Time

	return e, nil
}

// GetByOccurrence получает исключение по паре (родитель, дата вхождения)
func (r *Repository) GetByOccurrence(ctx context.Context, parentID string, occurrenceDate time.Time) (*domain.RecurrenceException, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(exceptionColumns...).
		From("recurrence_exceptions").
		Where(squirrel.Eq{
			"parent_booking_id": parentID,
			"occurrence_date":   occurrenceDate,
		}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByOccurrence - build select query: %v", ErrBuildQuery, err)
	}

	e, err := r.scanException(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrExceptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByOccurrence - scan exception: %v", ErrScanRow, err)
	}

	return e, nil
}

// ListByParent получает все исключения серии в хронологическом порядке
func (r *Repository) ListByParent(ctx context.Context, parentID string) ([]*domain.RecurrenceException, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(exceptionColumns...).
		From("recurrence_exceptions").
		Where(squirrel.Eq{"parent_booking_id": parentID}).
		OrderBy("occurrence_date ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListByParent - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByParent - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	exceptions := make([]*domain.RecurrenceException, 0)
	for rows.Next() {
		e, err := r.scanException(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByParent - scan row: %v", ErrScanRow, err)
		}
		exceptions = append(exceptions, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByParent - rows error: %v", ErrScanRow, err)
	}

	return exceptions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanException(row rowScanner) (*domain.RecurrenceException, error) {
	var e domain.RecurrenceException
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&e.ID,
		&e.DisplayID,
		&e.ParentBookingID,
		&e.OccurrenceDate,
		&e.ExceptionType,
		&e.NewBookingDate,
		&e.NewStartTime,
		&e.NewEndTime,
		&e.Reason,
		&e.ModifiedBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.CreatedAt = createdAt.Time
	e.UpdatedAt = updatedAt.Time

	return &e, nil
}
