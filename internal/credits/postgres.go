package credits

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger persists credit accounts and their append-only
// transaction log in PostgreSQL. Debits lock the account row so the
// balance check and the mutation commit as one unit.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := l.db.QueryRow(ctx, `SELECT balance FROM credit_accounts WHERE user_id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}

func (l *PostgresLedger) Credit(ctx context.Context, userID string, amount int64, description string) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	return l.post(ctx, userID, amount, TypeDeposit, description)
}

func (l *PostgresLedger) Debit(ctx context.Context, userID string, amount int64, txType Type, description string) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if txType != TypeWithdrawal && txType != TypePurchase {
		txType = TypeWithdrawal
	}
	return l.post(ctx, userID, -amount, txType, description)
}

// post applies one signed ledger entry inside a transaction holding the
// account row lock.
func (l *PostgresLedger) post(ctx context.Context, userID string, amount int64, txType Type, description string) (Transaction, error) {
	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `INSERT INTO credit_accounts (user_id, balance) VALUES ($1, 0)
        ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return Transaction{}, err
	}

	var balance int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM credit_accounts WHERE user_id = $1 FOR UPDATE`, userID).Scan(&balance); err != nil {
		return Transaction{}, err
	}

	if balance+amount < 0 {
		return Transaction{}, ErrInsufficientFunds
	}

	record := Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		Description: description,
		Timestamp:   time.Now().UTC(),
		Status:      StatusCompleted,
	}

	if _, err := tx.Exec(ctx, `INSERT INTO credit_transactions (id, user_id, amount, tx_type, description, created_at, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, record.UserID, record.Amount, string(record.Type), record.Description, record.Timestamp, string(record.Status)); err != nil {
		return Transaction{}, err
	}

	if _, err := tx.Exec(ctx, `UPDATE credit_accounts SET balance = balance + $2 WHERE user_id = $1`, userID, amount); err != nil {
		return Transaction{}, err
	}

	// Trim history beyond the cap; the balance itself is authoritative in
	// credit_accounts, so dropping old entries loses no money.
	if _, err := tx.Exec(ctx, `DELETE FROM credit_transactions WHERE user_id = $1 AND id NOT IN (
        SELECT id FROM credit_transactions WHERE user_id = $1 ORDER BY created_at DESC, id LIMIT $2)`, userID, historyCap); err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	return record, nil
}

func (l *PostgresLedger) Transactions(ctx context.Context, userID string) ([]Transaction, error) {
	rows, err := l.db.Query(ctx, `SELECT id, user_id, amount, tx_type, description, created_at, status
        FROM credit_transactions WHERE user_id = $1 ORDER BY created_at DESC, id LIMIT $2`, userID, historyCap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		var txType, status string
		var createdAt time.Time
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &txType, &t.Description, &createdAt, &status); err != nil {
			return nil, err
		}
		t.Type = Type(txType)
		t.Status = TxStatus(status)
		t.Timestamp = createdAt.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}
