// Package credits maintains per-user prepaid balances with an append-only
// transaction history.
package credits

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInsufficientFunds occurs when a debit exceeds the available
	// balance. The account is left untouched.
	ErrInsufficientFunds = errors.New("insufficient credits")

	// ErrInvalidAmount indicates a non-positive credit or debit amount.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Type classifies a ledger transaction.
type Type string

const (
	TypeDeposit    Type = "deposit"
	TypeWithdrawal Type = "withdrawal"
	TypePurchase   Type = "purchase"
)

// TxStatus is the settlement state of a transaction.
type TxStatus string

const (
	StatusPending   TxStatus = "pending"
	StatusCompleted TxStatus = "completed"
	StatusFailed    TxStatus = "failed"
)

// historyCap bounds the retained transaction history per user; older
// entries are silently dropped.
const historyCap = 100

// Transaction is one immutable ledger entry. Amount is signed: deposits
// positive, withdrawals and purchases negative, so a user's balance always
// equals the sum of their entries.
type Transaction struct {
	ID          string
	UserID      string
	Amount      int64
	Type        Type
	Description string
	Timestamp   time.Time
	Status      TxStatus
}

// Ledger defines the contract implemented by credit backends. Every
// balance mutation is atomic check-then-act per user: two concurrent
// debits can never both pass the balance check.
type Ledger interface {
	// Balance returns the current balance, zero for unknown users.
	Balance(ctx context.Context, userID string) (int64, error)
	// Credit appends a deposit and raises the balance. Always succeeds
	// for positive amounts.
	Credit(ctx context.Context, userID string, amount int64, description string) (Transaction, error)
	// Debit appends a withdrawal or purchase and lowers the balance, or
	// returns ErrInsufficientFunds with no mutation at all.
	Debit(ctx context.Context, userID string, amount int64, txType Type, description string) (Transaction, error)
	// Transactions lists entries most recent first, capped at 100.
	Transactions(ctx context.Context, userID string) ([]Transaction, error)
}
