package credits

import (
	"context"
	"errors"
	"testing"
)

func TestServiceDepositAndWithdraw(t *testing.T) {
	svc := NewService(NewInMemory(), DefaultCatalogue(), 50)
	ctx := context.Background()

	tx, err := svc.Deposit(ctx, "user-1", 500, "deposit")
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if tx.Type != TypeDeposit || tx.Amount != 500 {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	balance, _ := svc.Balance(ctx, "user-1")
	if balance != 500 {
		t.Fatalf("expected balance 500, got %d", balance)
	}

	if _, err := svc.Withdraw(ctx, "user-1", 800, "too big"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	balance, _ = svc.Balance(ctx, "user-1")
	if balance != 500 {
		t.Fatalf("failed withdrawal mutated balance: %d", balance)
	}
}

func TestServicePurchase(t *testing.T) {
	svc := NewService(NewInMemory(), DefaultCatalogue(), 50)
	ctx := context.Background()

	if _, err := svc.Purchase(ctx, "user-1", "no-such-service"); !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("expected service not found, got %v", err)
	}

	if _, err := svc.Deposit(ctx, "user-1", 500, "deposit"); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	tx, err := svc.Purchase(ctx, "user-1", "unlock-basic")
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if tx.Type != TypePurchase || tx.Amount != -200 {
		t.Fatalf("unexpected purchase transaction %+v", tx)
	}

	balance, _ := svc.Balance(ctx, "user-1")
	if balance != 300 {
		t.Fatalf("expected balance 300, got %d", balance)
	}

	// imei-repair costs 300; a second attempt would overdraw.
	if _, err := svc.Purchase(ctx, "user-1", "imei-repair"); err != nil {
		t.Fatalf("purchase at exact balance: %v", err)
	}
	if _, err := svc.Purchase(ctx, "user-1", "imei-repair"); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}

func TestServicePremiumGate(t *testing.T) {
	svc := NewService(NewInMemory(), DefaultCatalogue(), 50)
	ctx := context.Background()

	ok, err := svc.CanAccessPlatform(ctx, "user-1")
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	if ok {
		t.Fatalf("empty account must not pass the gate")
	}

	if _, err := svc.Deposit(ctx, "user-1", 50, "deposit"); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if ok, _ = svc.CanAccessPlatform(ctx, "user-1"); !ok {
		t.Fatalf("expected gate to pass at minimum deposit")
	}

	if ok, _ = svc.CanAccessPremium(ctx, "user-1", 100); ok {
		t.Fatalf("threshold 100 must not pass with balance 50")
	}
}

func TestServiceCatalogueListsActiveItems(t *testing.T) {
	catalogue := append(DefaultCatalogue(), CatalogueItem{ID: "aa-retired", Name: "Old", Cost: 10, Active: false})
	svc := NewService(NewInMemory(), catalogue, 50)

	items := svc.Catalogue()
	if len(items) != 3 {
		t.Fatalf("expected 3 active items, got %d", len(items))
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].ID >= items[i].ID {
			t.Fatalf("catalogue not sorted: %s before %s", items[i-1].ID, items[i].ID)
		}
	}
}
