package blackout

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/pkg/dbmetrics"
	"github.com/helixcare/Resido-AmenityService/pkg/displayid"
	"github.com/helixcare/Resido-AmenityService/pkg/psqlbuilder"
)

// Repository репозиторий для работы с периодами недоступности amenity
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория blackout-периодов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

var blackoutColumns = []string{
	"id",
	"display_id",
	"amenity_id",
	"start_date",
	"end_date",
	"start_time",
	"end_time",
	"reason",
	"created_by",
	"active",
	"created_at",
	"updated_at",
}

// Create создает период недоступности
func (r *Repository) Create(ctx context.Context, b *domain.BlackoutPeriod) (*domain.BlackoutPeriod, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.DisplayID == "" {
		b.DisplayID = displayid.New(domain.BlackoutDisplayPrefix)
	}

	query, args, err := psqlbuilder.Insert("blackout_periods").
		Columns(
			"id",
			"display_id",
			"amenity_id",
			"start_date",
			"end_date",
			"start_time",
			"end_time",
			"reason",
			"created_by",
			"active",
		).
		Values(
			b.ID,
			b.DisplayID,
			b.AmenityID,
			b.StartDate,
			b.EndDate,
			b.StartTime,
			b.EndTime,
			b.Reason,
			b.CreatedBy,
			b.Active,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return b, nil
}

// ListActiveInRange получает активные периоды, пересекающие диапазон дат
// [from, to] включительно
func (r *Repository) ListActiveInRange(ctx context.Context, amenityID string, from, to time.Time) ([]*domain.BlackoutPeriod, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(blackoutColumns...).
		From("blackout_periods").
		Where(squirrel.Eq{"amenity_id": amenityID, "active": true}).
		Where(squirrel.LtOrEq{"start_date": to}).
		Where(squirrel.GtOrEq{"end_date": from}).
		OrderBy("start_date ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveInRange - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActiveInRange - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBlackouts(rows)
}

// ListActiveOnDate получает активные периоды, покрывающие конкретную дату
func (r *Repository) ListActiveOnDate(ctx context.Context, amenityID string, date time.Time) ([]*domain.BlackoutPeriod, error) {
	return r.ListActiveInRange(ctx, amenityID, date, date)
}

// Deactivate выключает период недоступности
func (r *Repository) Deactivate(ctx context.Context, id string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("blackout_periods").
		Set("active", false).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Deactivate - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Deactivate - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Deactivate - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrBlackoutNotFound
	}

	return nil
}

// scanBlackouts сканирует результаты запроса в слайс периодов
func (r *Repository) scanBlackouts(rows *sql.Rows) ([]*domain.BlackoutPeriod, error) {
	blackouts := make([]*domain.BlackoutPeriod, 0)

	for rows.Next() {
		var b domain.BlackoutPeriod
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&b.ID,
			&b.DisplayID,
			&b.AmenityID,
			&b.StartDate,
			&b.EndDate,
			&b.StartTime,
			&b.EndTime,
			&b.Reason,
			&b.CreatedBy,
			&b.Active,
			&createdAt,
			&updatedAt,
		)

		if err != nil {
			return nil, fmt.Errorf("%w: scanBlackouts - scan row: %v", ErrScanRow, err)
		}

		b.CreatedAt = createdAt.Time
		b.UpdatedAt = updatedAt.Time

		blackouts = append(blackouts, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBlackouts - rows error: %v", ErrScanRow, err)
	}

	return blackouts, nil
}
