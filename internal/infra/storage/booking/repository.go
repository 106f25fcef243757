package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/helixcare/Resido-AmenityService/internal/domain"
	"github.com/helixcare/Resido-AmenityService/pkg/dbmetrics"
	"github.com/helixcare/Resido-AmenityService/pkg/displayid"
	"github.com/helixcare/Resido-AmenityService/pkg/psqlbuilder"
	"github.com/helixcare/Resido-AmenityService/pkg/types"
)

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

var bookingColumns = []string{
	"id",
	"display_id",
	"amenity_id",
	"tenant_id",
	"booking_date",
	"start_time",
	"end_time",
	"status",
	"notes",
	"selected_slot_ids",
	"is_recurring",
	"parent_booking_id",
	"occurrence_date",
	"recurrence_sequence",
	"repeat_frequency",
	"repeat_interval",
	"repeat_on_days_of_week",
	"repeat_on_day_of_month",
	"recurrence_end_type",
	"recurrence_end_date",
	"recurrence_occurrences",
	"rejection_reason",
	"rejection_remarks",
	"cancellation_reason",
	"requested_on",
	"confirmed_on",
	"rejected_on",
	"cancelled_on",
	"created_at",
	"updated_at",
}

// Create создает бронирование.
// Если в контексте передана активная транзакция, использует её - размещение
// бронирования всегда выполняется в одной транзакции с занятием слотов.
func (r *Repository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.DisplayID == "" {
		b.DisplayID = displayid.New(domain.BookingDisplayPrefix)
	}

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"id",
			"display_id",
			"amenity_id",
			"tenant_id",
			"booking_date",
			"start_time",
			"end_time",
			"status",
			"notes",
			"selected_slot_ids",
			"is_recurring",
			"parent_booking_id",
			"occurrence_date",
			"recurrence_sequence",
			"repeat_frequency",
			"repeat_interval",
			"repeat_on_days_of_week",
			"repeat_on_day_of_month",
			"recurrence_end_type",
			"recurrence_end_date",
			"recurrence_occurrences",
			"requested_on",
		).
		Values(
			b.ID,
			b.DisplayID,
			b.AmenityID,
			b.TenantID,
			b.BookingDate,
			b.StartTime,
			b.EndTime,
			b.Status,
			b.Notes,
			pq.Array(b.SelectedSlotIDs),
			b.IsRecurring,
			b.ParentBookingID,
			b.OccurrenceDate,
			b.RecurrenceSequence,
			b.RepeatFrequency,
			b.RepeatInterval,
			pq.Array(b.RepeatOnDaysOfWeek),
			b.RepeatOnDayOfMonth,
			b.RecurrenceEndType,
			b.RecurrenceEndDate,
			b.RecurrenceOccurrences,
			b.RequestedOn,
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

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	b, err := r.scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return b, nil
}

// GetByIDForUpdate получает бронирование по ID с блокировкой FOR UPDATE.
// Вызывается только внутри транзакции - на строке родителя сериализуются
// операции над серией.
func (r *Repository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByIDForUpdate - build select query: %v", ErrBuildQuery, err)
	}

	b, err := r.scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByIDForUpdate - scan booking: %v", ErrScanRow, err)
	}

	return b, nil
}

// ListByTenant получает бронирования резидента
// Опционально фильтрует по статусу
func (r *Repository) ListByTenant(ctx context.Context, tenantID string, status *domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("booking_date DESC, start_time DESC")

	// Фильтрация по статусу, если указан
	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByTenant - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByTenant - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// ListByAmenityDate получает активные бронирования amenity на дату
func (r *Repository) ListByAmenityDate(ctx context.Context, amenityID string, date time.Time) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	activeStatuses := make([]string, len(domain.ActiveStatuses))
	for i, s := range domain.ActiveStatuses {
		activeStatuses[i] = string(s)
	}

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{
			"amenity_id":   amenityID,
			"booking_date": date,
			"status":       activeStatuses,
		}).
		OrderBy("start_time ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListByAmenityDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByAmenityDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// ListChildren получает инстансы серии по фильтру
func (r *Repository) ListChildren(ctx context.Context, filter domain.ChildrenFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"parent_booking_id": filter.ParentBookingID})

	if filter.FromDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"booking_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"booking_date": *filter.ToDate})
	}
	if filter.OnlyActive {
		activeStatuses := make([]string, len(domain.ActiveStatuses))
		for i, s := range domain.ActiveStatuses {
			activeStatuses[i] = string(s)
		}
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": activeStatuses})
	}

	// Внутри транзакции блокируем инстансы - отмена/изменение серии
	// не должны гоняться с операциями над отдельным инстансом
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.
		OrderBy("booking_date ASC, start_time ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListChildren - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListChildren - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// Confirm переводит бронирование в confirmed
func (r *Repository) Confirm(ctx context.Context, id string) error {
	return r.transition(ctx, "Confirm", id, map[string]any{
		"status":       domain.StatusConfirmed,
		"confirmed_on": squirrel.Expr("NOW()"),
	})
}

// Reject переводит бронирование в rejected с причиной
func (r *Repository) Reject(ctx context.Context, id string, reason string, remarks *string) error {
	return r.transition(ctx, "Reject", id, map[string]any{
		"status":            domain.StatusRejected,
		"rejection_reason":  reason,
		"rejection_remarks": remarks,
		"rejected_on":       squirrel.Expr("NOW()"),
	})
}

// Cancel переводит бронирование в cancelled с причиной
func (r *Repository) Cancel(ctx context.Context, id string, reason string) error {
	return r.transition(ctx, "Cancel", id, map[string]any{
		"status":              domain.StatusCancelled,
		"cancellation_reason": reason,
		"cancelled_on":        squirrel.Expr("NOW()"),
	})
}

// Complete переводит бронирование в completed
func (r *Repository) Complete(ctx context.Context, id string) error {
	return r.transition(ctx, "Complete", id, map[string]any{
		"status": domain.StatusCompleted,
	})
}

// UpdateSchedule обновляет дату, время и привязку к слотам бронирования
// Вызывается при modify-операциях в одной транзакции с перепривязкой слотов
func (r *Repository) UpdateSchedule(ctx context.Context, id string, date time.Time, start, end types.TimeString, slotIDs []string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("booking_date", date).
		Set("start_time", start).
		Set("end_time", end).
		Set("selected_slot_ids", pq.Array(slotIDs)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateSchedule - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateSchedule - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateSchedule - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// UpdateNotes обновляет заметки бронирования
func (r *Repository) UpdateNotes(ctx context.Context, id string, notes *string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("notes", notes).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateNotes - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateNotes - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateNotes - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// transition выполняет смену статуса; проверка допустимости перехода
// выполняется на уровне сервиса до вызова
func (r *Repository) transition(ctx context.Context, method, id string, fields map[string]any) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("bookings").
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})
	for column, value := range fields {
		updateBuilder = updateBuilder.Set(column, value)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, method, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, method, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, method, err)
	}
	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repository) scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&b.ID,
		&b.DisplayID,
		&b.AmenityID,
		&b.TenantID,
		&b.BookingDate,
		&b.StartTime,
		&b.EndTime,
		&b.Status,
		&b.Notes,
		pq.Array(&b.SelectedSlotIDs),
		&b.IsRecurring,
		&b.ParentBookingID,
		&b.OccurrenceDate,
		&b.RecurrenceSequence,
		&b.RepeatFrequency,
		&b.RepeatInterval,
		pq.Array(&b.RepeatOnDaysOfWeek),
		&b.RepeatOnDayOfMonth,
		&b.RecurrenceEndType,
		&b.RecurrenceEndDate,
		&b.RecurrenceOccurrences,
		&b.RejectionReason,
		&b.RejectionRemarks,
		&b.CancellationReason,
		&b.RequestedOn,
		&b.ConfirmedOn,
		&b.RejectedOn,
		&b.CancelledOn,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return &b, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func (r *Repository) scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		b, err := r.scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}
