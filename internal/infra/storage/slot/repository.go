package slot

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
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// Repository репозиторий для работы со слотами
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

var slotColumns = []string{
	"id",
	"display_id",
	"amenity_id",
	"slot_date",
	"slot_start_time",
	"slot_end_time",
	"slot_duration_minutes",
	"max_concurrent_bookings",
	"total_bookings",
	"is_available",
	"active",
	"created_at",
	"updated_at",
}

// Create создает слот
func (r *Repository) Create(ctx context.Context, s *domain.Slot) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.DisplayID == "" {
		s.DisplayID = displayid.New(domain.SlotDisplayPrefix)
	}

	query, args, err := psqlbuilder.Insert("slots").
		Columns(
			"id",
			"display_id",
			"amenity_id",
			"slot_date",
			"slot_start_time",
			"slot_end_time",
			"slot_duration_minutes",
			"max_concurrent_bookings",
			"total_bookings",
			"is_available",
			"active",
		).
		Values(
			s.ID,
			s.DisplayID,
			s.AmenityID,
			s.SlotDate,
			s.SlotStartTime,
			s.SlotEndTime,
			s.SlotDurationMinutes,
			s.MaxConcurrentBookings,
			s.TotalBookings,
			s.IsAvailable,
			s.Active,
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

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return s, nil
}

// GetByKey получает слот по уникальному ключу (amenity, дата, время начала)
func (r *Repository) GetByKey(ctx context.Context, amenityID string, date time.Time, start types.TimeString) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{
			"amenity_id":      amenityID,
			"slot_date":       date,
			"slot_start_time": start,
		}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByKey - build select query: %v", ErrBuildQuery, err)
	}

	s, err := r.scanSlot(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByKey - scan slot: %v", ErrScanRow, err)
	}

	return s, nil
}

// GetByIDs получает слоты по списку ID в порядке времени начала.
// Внутри транзакции добавляет блокировку FOR UPDATE - на этих строках
// сериализуется изменение вместимости.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"id": ids}).
		OrderBy("slot_date ASC, slot_start_time ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByIDs - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanSlots(rows)
}

// FindOverlapping получает активные слоты, пересекающие интервал
// [start, end) на дату. Касание границ пересечением не считается.
// Внутри транзакции добавляет блокировку FOR UPDATE.
func (r *Repository) FindOverlapping(ctx context.Context, amenityID string, date time.Time, start, end types.TimeString) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{
			"amenity_id": amenityID,
			"slot_date":  date,
			"active":     true,
		}).
		Where(squirrel.Lt{"slot_start_time": end}).
		Where(squirrel.Gt{"slot_end_time": start}).
		OrderBy("slot_start_time ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FindOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindOverlapping - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanSlots(rows)
}

// ListWithFilter получает слоты по фильтру
func (r *Repository) ListWithFilter(ctx context.Context, filter domain.SlotFilter) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(slotColumns...).
		From("slots").
		Where(squirrel.Eq{"amenity_id": filter.AmenityID, "active": true})

	if filter.SlotDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"slot_date": *filter.SlotDate})
	} else {
		if filter.FromDate != nil {
			selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"slot_date": *filter.FromDate})
		}
		if filter.ToDate != nil {
			selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"slot_date": *filter.ToDate})
		}
	}

	if filter.StartTime != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"slot_start_time": *filter.StartTime})
	}
	if filter.EndTime != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"slot_end_time": *filter.EndTime})
	}
	if filter.ExcludeFullyBooked {
		selectBuilder = selectBuilder.
			Where(squirrel.Eq{"is_available": true}).
			Where(squirrel.Expr("total_bookings < max_concurrent_bookings"))
	}

	query, args, err := selectBuilder.
		OrderBy("slot_date ASC, slot_start_time ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListWithFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanSlots(rows)
}

// IncrementBookings занимает единицу вместимости слота.
// Инкремент защищен условием в WHERE: если слот уже заполнен, запрос
// не затронет ни одной строки и вернется ErrCapacityExhausted.
func (r *Repository) IncrementBookings(ctx context.Context, id string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slots").
		Set("total_bookings", squirrel.Expr("total_bookings + 1")).
		Set("is_available", squirrel.Expr("total_bookings + 1 < max_concurrent_bookings")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Expr("total_bookings < max_concurrent_bookings")).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: IncrementBookings - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: IncrementBookings - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: IncrementBookings - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrCapacityExhausted
	}

	return nil
}

// DecrementBookings освобождает единицу вместимости слота.
// covered=true означает, что слот на момент освобождения накрыт
// blackout-периодом: счетчик уменьшается, но слот остается недоступным.
func (r *Repository) DecrementBookings(ctx context.Context, id string, covered bool) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("slots").
		Set("total_bookings", squirrel.Expr("GREATEST(total_bookings - 1, 0)")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	if covered {
		updateBuilder = updateBuilder.Set("is_available", false)
	} else {
		updateBuilder = updateBuilder.Set("is_available",
			squirrel.Expr("GREATEST(total_bookings - 1, 0) < max_concurrent_bookings"))
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: DecrementBookings - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: DecrementBookings - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: DecrementBookings - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrSlotNotFound
	}

	return nil
}

// SetAvailability выставляет флаг доступности слота
// Используется при наложении blackout-периода на уже существующие слоты
func (r *Repository) SetAvailability(ctx context.Context, id string, available bool) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("slots").
		Set("is_available", available).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SetAvailability - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: SetAvailability - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: SetAvailability - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrSlotNotFound
	}

	return nil
}

// CountBookedInRange считает слоты с ненулевой занятостью в диапазоне дат
// Используется как guard перед перегенерацией с удалением
func (r *Repository) CountBookedInRange(ctx context.Context, amenityID string, from, to time.Time) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("slots").
		Where(squirrel.Eq{"amenity_id": amenityID}).
		Where(squirrel.GtOrEq{"slot_date": from}).
		Where(squirrel.LtOrEq{"slot_date": to}).
		Where(squirrel.Gt{"total_bookings": 0}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: CountBookedInRange - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountBookedInRange - scan count: %v", ErrScanRow, err)
	}

	return count, nil
}

// DeleteRange удаляет слоты amenity в диапазоне дат [from, to]
// Возвращает количество удаленных слотов
func (r *Repository) DeleteRange(ctx context.Context, amenityID string, from, to time.Time) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("slots").
		Where(squirrel.Eq{"amenity_id": amenityID}).
		Where(squirrel.GtOrEq{"slot_date": from}).
		Where(squirrel.LtOrEq{"slot_date": to}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: DeleteRange - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteRange - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteRange - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanSlot(row rowScanner) (*domain.Slot, error) {
	var s domain.Slot
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&s.ID,
		&s.DisplayID,
		&s.AmenityID,
		&s.SlotDate,
		&s.SlotStartTime,
		&s.SlotEndTime,
		&s.SlotDurationMinutes,
		&s.MaxConcurrentBookings,
		&s.TotalBookings,
		&s.IsAvailable,
		&s.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return &s, nil
}

// scanSlots сканирует результаты запроса в слайс слотов
func (r *Repository) scanSlots(rows *sql.Rows) ([]*domain.Slot, error) {
	slots := make([]*domain.Slot, 0)

	for rows.Next() {
		s, err := r.scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanSlots - scan row: %v", ErrScanRow, err)
		}
		slots = append(slots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanSlots - rows error: %v", ErrScanRow, err)
	}

	return slots, nil
}
