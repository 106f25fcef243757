package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/helixcare/Resido-AmenityService/pkg/dbmetrics"
)

// DefaultRetryAttempts бюджет повторов при serialization failure
const DefaultRetryAttempts = 3

var (
	// ErrBeginTx возвращается при ошибке открытия транзакции
	ErrBeginTx = errors.New("txmanager: failed to begin transaction")

	// ErrCommit возвращается при ошибке фиксации транзакции
	ErrCommit = errors.New("txmanager: failed to commit transaction")

	// ErrRetryExhausted возвращается, когда бюджет повторов исчерпан
	// конкурентными конфликтами сериализации
	ErrRetryExhausted = errors.New("txmanager: serialization retry budget exhausted")
)

// TxBeginner интерфейс открытия транзакций (реализуется dbmetrics.DB)
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error)
}

// TransactionManager выполняет функции внутри транзакций БД
// Сериализуемые транзакции повторяются при конфликтах (pq 40001/40P01)
// в пределах бюджета retryAttempts
type TransactionManager struct {
	db            TxBeginner
	retryAttempts int
}

// NewTransactionManager создает менеджер с бюджетом повторов по умолчанию
func NewTransactionManager(db TxBeginner) *TransactionManager {
	return NewTransactionManagerWithRetries(db, DefaultRetryAttempts)
}

// NewTransactionManagerWithRetries создает менеджер с явным бюджетом повторов
func NewTransactionManagerWithRetries(db TxBeginner, retryAttempts int) *TransactionManager {
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &TransactionManager{db: db, retryAttempts: retryAttempts}
}

// Do выполняет fn в транзакции с уровнем изоляции по умолчанию
func (m *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{}, fn)
}

// DoSerializable выполняет fn в сериализуемой транзакции с повторами
// при конфликтах сериализации
func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}

	var lastErr error
	for attempt := 0; attempt < m.retryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := m.run(ctx, opts, fn)
		if err == nil {
			return nil
		}
		if !IsSerializationFailure(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
}

// DoReadOnly выполняет fn в read-only транзакции
func (m *TransactionManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (m *TransactionManager) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBeginTx, err)
	}

	txCtx := dbmetrics.WithTx(ctx, tx)

	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: %v", ErrCommit, err)
	}

	return nil
}

// IsSerializationFailure распознаёт конфликты, которые имеет смысл повторить:
// serialization_failure (40001) и deadlock_detected (40P01)
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
