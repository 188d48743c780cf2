package credits

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// account serializes all mutations for one user behind its own mutex, so
// check-then-act debits are atomic per user without a global write lock.
type account struct {
	mu           sync.Mutex
	balance      int64
	transactions []Transaction
}

type inMemoryLedger struct {
	mu       sync.RWMutex
	accounts map[string]*account
}

// NewInMemory creates a concurrency-safe in-memory ledger for tests and
// development mode.
func NewInMemory() Ledger {
	return &inMemoryLedger{accounts: make(map[string]*account)}
}

func (l *inMemoryLedger) accountFor(userID string) *account {
	l.mu.RLock()
	acc, ok := l.accounts[userID]
	l.mu.RUnlock()
	if ok {
		return acc
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if acc, ok = l.accounts[userID]; !ok {
		acc = &account{}
		l.accounts[userID] = acc
	}
	return acc
}

func (l *inMemoryLedger) Balance(_ context.Context, userID string) (int64, error) {
	acc := l.accountFor(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.balance, nil
}

func (l *inMemoryLedger) Credit(_ context.Context, userID string, amount int64, description string) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}

	acc := l.accountFor(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	tx := Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		Type:        TypeDeposit,
		Description: description,
		Timestamp:   time.Now().UTC(),
		Status:      StatusCompleted,
	}
	acc.balance += amount
	acc.prepend(tx)
	return tx, nil
}

func (l *inMemoryLedger) Debit(_ context.Context, userID string, amount int64, txType Type, description string) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	if txType != TypeWithdrawal && txType != TypePurchase {
		txType = TypeWithdrawal
	}

	acc := l.accountFor(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	if acc.balance < amount {
		return Transaction{}, ErrInsufficientFunds
	}

	tx := Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Amount:      -amount,
		Type:        txType,
		Description: description,
		Timestamp:   time.Now().UTC(),
		Status:      StatusCompleted,
	}
	acc.balance -= amount
	acc.prepend(tx)
	return tx, nil
}

func (l *inMemoryLedger) Transactions(_ context.Context, userID string) ([]Transaction, error) {
	acc := l.accountFor(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()

	out := make([]Transaction, len(acc.transactions))
	copy(out, acc.transactions)
	return out, nil
}

// prepend inserts most-recent-first and drops entries beyond the cap.
// Callers hold the account mutex.
func (a *account) prepend(tx Transaction) {
	a.transactions = append([]Transaction{tx}, a.transactions...)
	if len(a.transactions) > historyCap {
		a.transactions = a.transactions[:historyCap]
	}
}
