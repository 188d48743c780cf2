package payments

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResultStore persists payment results keyed by transaction id.
type ResultStore interface {
	Save(ctx context.Context, result Result) error
	Get(ctx context.Context, transactionID string) (Result, error)
}

type memoryResultStore struct {
	mu      sync.RWMutex
	results map[string]Result
}

// NewMemoryResultStore builds an in-memory result store for dev mode
// and tests.
func NewMemoryResultStore() ResultStore {
	return &memoryResultStore{results: make(map[string]Result)}
}

func (s *memoryResultStore) Save(_ context.Context, result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.TransactionID] = result
	return nil
}

func (s *memoryResultStore) Get(_ context.Context, transactionID string) (Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[transactionID]
	if !ok {
		return Result{}, ErrResultNotFound
	}
	return result, nil
}

// PostgresResultStore stores payment results in the payment_results table.
type PostgresResultStore struct {
	pool *pgxpool.Pool
}

// NewPostgresResultStore builds a Postgres-backed result store.
func NewPostgresResultStore(pool *pgxpool.Pool) *PostgresResultStore {
	return &PostgresResultStore{pool: pool}
}

const resultColumns = `transaction_id, status, amount, currency, method, user_id, created_at, confirmation_code, error_message`

func (s *PostgresResultStore) Save(ctx context.Context, result Result) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO payment_results (`+resultColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (transaction_id) DO UPDATE SET
			status = EXCLUDED.status,
			confirmation_code = EXCLUDED.confirmation_code,
			error_message = EXCLUDED.error_message`,
		result.TransactionID, result.Status, result.Amount, result.Currency,
		result.Method, result.UserID, result.Timestamp, result.ConfirmationCode,
		result.ErrorMessage,
	)
	return err
}

func (s *PostgresResultStore) Get(ctx context.Context, transactionID string) (Result, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+resultColumns+`
		FROM payment_results
		WHERE transaction_id = $1`, transactionID)

	var result Result
	err := row.Scan(&result.TransactionID, &result.Status, &result.Amount,
		&result.Currency, &result.Method, &result.UserID, &result.Timestamp,
		&result.ConfirmationCode, &result.ErrorMessage)
	if errors.Is(err, pgx.ErrNoRows) {
		return Result{}, ErrResultNotFound
	}
	if err != nil {
		return Result{}, err
	}
	return result, nil
}
