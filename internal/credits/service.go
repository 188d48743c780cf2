package credits

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrServiceNotFound indicates an unknown catalogue entry.
var ErrServiceNotFound = errors.New("service not found")

// CatalogueItem is a purchasable GSM service paid for with credits.
type CatalogueItem struct {
	ID          string
	Name        string
	Description string
	Cost        int64
	Category    string
	Active      bool
}

// DefaultCatalogue mirrors the partner platform's standard offering.
func DefaultCatalogue() []CatalogueItem {
	return []CatalogueItem{
		{ID: "unlock-basic", Name: "Desbloqueio Básico", Description: "Desbloqueio de smartphones básicos", Cost: 200, Category: "unlock", Active: true},
		{ID: "firmware-update", Name: "Atualização de Firmware", Description: "Atualização completa do sistema", Cost: 150, Category: "maintenance", Active: true},
		{ID: "imei-repair", Name: "Reparação IMEI", Description: "Correção de problemas de IMEI", Cost: 300, Category: "repair", Active: true},
	}
}

// Service exposes credit operations plus the purchasable service catalogue.
type Service struct {
	ledger         Ledger
	catalogue      map[string]CatalogueItem
	minimumDeposit int64
}

// NewService builds a credits service. minimumDeposit gates partner
// platform access.
func NewService(ledger Ledger, catalogue []CatalogueItem, minimumDeposit int64) *Service {
	items := make(map[string]CatalogueItem, len(catalogue))
	for _, item := range catalogue {
		items[item.ID] = item
	}
	if minimumDeposit <= 0 {
		minimumDeposit = 50
	}
	return &Service{ledger: ledger, catalogue: items, minimumDeposit: minimumDeposit}
}

// Balance returns the user's current credit balance, zero for unknown users.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	return s.ledger.Balance(ctx, userID)
}

// Deposit credits the user's account.
func (s *Service) Deposit(ctx context.Context, userID string, amount int64, description string) (Transaction, error) {
	if description == "" {
		description = "Depósito de crédito"
	}
	return s.ledger.Credit(ctx, userID, amount, description)
}

// Withdraw debits the user's account.
func (s *Service) Withdraw(ctx context.Context, userID string, amount int64, description string) (Transaction, error) {
	return s.ledger.Debit(ctx, userID, amount, TypeWithdrawal, description)
}

// Transactions lists the user's history, most recent first.
func (s *Service) Transactions(ctx context.Context, userID string) ([]Transaction, error) {
	return s.ledger.Transactions(ctx, userID)
}

// Catalogue lists active purchasable services sorted by identifier.
func (s *Service) Catalogue() []CatalogueItem {
	out := make([]CatalogueItem, 0, len(s.catalogue))
	for _, item := range s.catalogue {
		if item.Active {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Purchase debits the cost of a catalogue service from the user.
func (s *Service) Purchase(ctx context.Context, userID, serviceID string) (Transaction, error) {
	item, ok := s.catalogue[serviceID]
	if !ok || !item.Active {
		return Transaction{}, ErrServiceNotFound
	}
	return s.ledger.Debit(ctx, userID, item.Cost, TypePurchase, fmt.Sprintf("Compra: %s", item.Name))
}

// CanAccessPremium reports whether the user's balance meets the threshold.
// Pure predicate, no mutation.
func (s *Service) CanAccessPremium(ctx context.Context, userID string, threshold int64) (bool, error) {
	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return false, err
	}
	return balance >= threshold, nil
}

// CanAccessPlatform applies the configured minimum-deposit gate.
func (s *Service) CanAccessPlatform(ctx context.Context, userID string) (bool, error) {
	return s.CanAccessPremium(ctx, userID, s.minimumDeposit)
}
