package credits

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestInMemoryLedger_BalanceMatchesTransactionSum(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if _, err := l.Credit(ctx, "user-1", 500, "deposit"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := l.Credit(ctx, "user-1", 300, "deposit"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := l.Debit(ctx, "user-1", 200, TypePurchase, "purchase"); err != nil {
		t.Fatalf("debit: %v", err)
	}

	balance, err := l.Balance(ctx, "user-1")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}

	txs, err := l.Transactions(ctx, "user-1")
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	var sum int64
	for _, tx := range txs {
		sum += tx.Amount
	}
	if balance != 600 || sum != balance {
		t.Fatalf("balance %d, transaction sum %d", balance, sum)
	}
}

func TestInMemoryLedger_UnknownUserHasZeroBalance(t *testing.T) {
	l := NewInMemory()
	balance, err := l.Balance(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected 0, got %d", balance)
	}
}

func TestInMemoryLedger_DebitInsufficientIsAtomic(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if _, err := l.Credit(ctx, "user-1", 500, "deposit"); err != nil {
		t.Fatalf("credit: %v", err)
	}

	if _, err := l.Debit(ctx, "user-1", 800, TypePurchase, "too big"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	balance, _ := l.Balance(ctx, "user-1")
	if balance != 500 {
		t.Fatalf("failed debit mutated balance: %d", balance)
	}
	txs, _ := l.Transactions(ctx, "user-1")
	if len(txs) != 1 {
		t.Fatalf("failed debit recorded a transaction: %d entries", len(txs))
	}
}

func TestInMemoryLedger_RejectsNonPositiveAmounts(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if _, err := l.Credit(ctx, "user-1", 0, "zero"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := l.Debit(ctx, "user-1", -5, TypeWithdrawal, "negative"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
}

func TestInMemoryLedger_HistoryOrderAndCap(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	for i := 0; i < historyCap+20; i++ {
		if _, err := l.Credit(ctx, "user-1", 10, fmt.Sprintf("deposit %d", i)); err != nil {
			t.Fatalf("credit %d: %v", i, err)
		}
	}

	txs, err := l.Transactions(ctx, "user-1")
	if err != nil {
		t.Fatalf("transactions: %v", err)
	}
	if len(txs) != historyCap {
		t.Fatalf("expected history capped at %d, got %d", historyCap, len(txs))
	}
	if txs[0].Description != fmt.Sprintf("deposit %d", historyCap+19) {
		t.Fatalf("expected most recent first, got %q", txs[0].Description)
	}

	// The cap drops history, never money.
	balance, _ := l.Balance(ctx, "user-1")
	if balance != int64(historyCap+20)*10 {
		t.Fatalf("unexpected balance %d", balance)
	}
}

func TestInMemoryLedger_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	SeedBalance(l, "user-1", 1_000)

	const workers = 20
	const amount = int64(100)

	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = l.Debit(ctx, "user-1", amount, TypeWithdrawal, "concurrent")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrInsufficientFunds) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 10 {
		t.Fatalf("expected exactly 10 debits to pass, got %d", succeeded)
	}

	balance, _ := l.Balance(ctx, "user-1")
	if balance != 0 {
		t.Fatalf("expected balance 0, got %d", balance)
	}
	if balance < 0 {
		t.Fatalf("balance went negative: %d", balance)
	}
}
