package amenity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/pkg/dbmetrics"
	"github.com/helixcare/Resido-AmenityService/pkg/psqlbuilder"
)

// Repository репозиторий для чтения amenities
// Записи принадлежат сервису администрирования, движок бронирования их
// только читает
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория amenities
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

var amenityColumns = []string{
	"id",
	"display_id",
	"name",
	"operating_start_time",
	"operating_end_time",
	"slot_interval_minutes",
	"concurrency_cap",
	"timezone",
	"walk_in_schedule",
	"holidays",
	"active",
	"created_at",
	"updated_at",
}

// GetByID получает amenity по ID
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Amenity, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(amenityColumns...).
		From("amenities").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	return r.scanAmenity(executor.QueryRowContext(ctx, query, args...), "GetByID")
}

// ListActive получает все активные amenities
// Используется фоновой генерацией слотов
func (r *Repository) ListActive(ctx context.Context) ([]*domain.Amenity, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(amenityColumns...).
		From("amenities").
		Where(squirrel.Eq{"active": true}).
		OrderBy("name ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	amenities := make([]*domain.Amenity, 0)
	for rows.Next() {
		a, err := r.scanAmenity(rows, "ListActive")
		if err != nil {
			return nil, err
		}
		amenities = append(amenities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListActive - rows error: %v", ErrScanRow, err)
	}

	return amenities, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanAmenity(row rowScanner, method string) (*domain.Amenity, error) {
	var (
		a           domain.Amenity
		walkInRaw   []byte
		holidaysRaw []byte
		createdAt   sql.NullTime
		updatedAt   sql.NullTime
	)

	err := row.Scan(
		&a.ID,
		&a.DisplayID,
		&a.Name,
		&a.OperatingStartTime,
		&a.OperatingEndTime,
		&a.SlotIntervalMinutes,
		&a.ConcurrencyCap,
		&a.Timezone,
		&walkInRaw,
		&holidaysRaw,
		&a.Active,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrAmenityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan amenity: %v", ErrScanRow, method, err)
	}

	// Политики хранятся как JSONB
	if len(walkInRaw) > 0 {
		if err := json.Unmarshal(walkInRaw, &a.WalkInSchedule); err != nil {
			return nil, fmt.Errorf("%w: %s - decode walk_in_schedule: %v", ErrScanRow, method, err)
		}
	}
	if len(holidaysRaw) > 0 {
		if err := json.Unmarshal(holidaysRaw, &a.Holidays); err != nil {
			return nil, fmt.Errorf("%w: %s - decode holidays: %v", ErrScanRow, method, err)
		}
	}

	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	return &a, nil
}
