package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tchova-digital/portal/internal/credits"
	"github.com/tchova-digital/portal/internal/notification"
)

// Options tunes the payment router.
type Options struct {
	// ProviderTimeout bounds each provider call. Zero means 10s.
	ProviderTimeout time.Duration
	// CreditNetOfFees credits the ledger with the amount after the
	// processing fee instead of the gross amount.
	CreditNetOfFees bool
}

func (o Options) withDefaults() Options {
	if o.ProviderTimeout <= 0 {
		o.ProviderTimeout = 10 * time.Second
	}
	return o
}

// Service routes payment requests to providers and credits the ledger
// on settlement.
type Service struct {
	methods   map[string]Method
	providers map[MethodType]Provider
	ledger    credits.Ledger
	results   ResultStore
	notifier  notification.Notifier
	opts      Options
}

// NewService builds the payment router.
func NewService(methods []Method, providers map[MethodType]Provider, ledger credits.Ledger, results ResultStore, notifier notification.Notifier, opts Options) *Service {
	byID := make(map[string]Method, len(methods))
	for _, m := range methods {
		byID[m.ID] = m
	}
	return &Service{
		methods:   byID,
		providers: providers,
		ledger:    ledger,
		results:   results,
		notifier:  notifier,
		opts:      opts.withDefaults(),
	}
}

// Methods lists the enabled payment methods, sorted by id.
func (s *Service) Methods() []Method {
	out := make([]Method, 0, len(s.methods))
	for _, m := range s.methods {
		if m.Enabled {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Fees computes the processing fee and net amount for a method. It is
// pure; nothing is dispatched or credited.
func (s *Service) Fees(methodID string, amount int64) (Fees, error) {
	method, ok := s.methods[methodID]
	if !ok || !method.Enabled {
		return Fees{}, fmt.Errorf("%w: %s", ErrMethodNotFound, methodID)
	}
	fee := int64(math.Round(float64(amount) * method.Config.ProcessingFee / 100))
	return Fees{Fee: fee, NetAmount: amount - fee}, nil
}

// Process validates the request, dispatches it to the method's provider
// under the configured timeout and credits the ledger on success. A
// result is persisted for every dispatched request, failed ones
// included; validation failures never reach a provider or the ledger.
func (s *Service) Process(ctx context.Context, req Request) (Result, error) {
	method, ok := s.methods[req.MethodID]
	if !ok || !method.Enabled {
		return Result{}, fmt.Errorf("%w: %s", ErrMethodNotFound, req.MethodID)
	}
	if req.Amount < method.Config.MinAmount {
		return Result{}, fmt.Errorf("%w: %s requires at least %d", ErrBelowMinimum, method.Name, method.Config.MinAmount)
	}
	if req.Amount > method.Config.MaxAmount {
		return Result{}, fmt.Errorf("%w: %s allows at most %d", ErrAboveMaximum, method.Name, method.Config.MaxAmount)
	}
	if req.Currency != "" && !method.SupportsCurrency(req.Currency) {
		return Result{}, fmt.Errorf("%w: %s does not settle %s", ErrUnsupportedCurrency, method.Name, req.Currency)
	}

	provider, ok := s.providers[method.Type]
	if !ok {
		return Result{}, fmt.Errorf("%w: no provider for type %s", ErrMethodNotFound, method.Type)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.ProviderTimeout)
	defer cancel()

	receipt, err := provider.Process(callCtx, req)
	if err != nil {
		outcome := err
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			outcome = fmt.Errorf("%w: %s", ErrProviderTimeout, method.Name)
		case !errors.Is(err, ErrProviderDeclined):
			outcome = fmt.Errorf("%w: %v", ErrProviderDeclined, err)
		}
		result := Result{
			TransactionID: failedTransactionID(),
			Status:        StatusFailed,
			Amount:        req.Amount,
			Currency:      req.Currency,
			Method:        method.ID,
			UserID:        req.UserID,
			Timestamp:     time.Now().UTC(),
			ErrorMessage:  outcome.Error(),
		}
		if saveErr := s.results.Save(ctx, result); saveErr != nil {
			return result, fmt.Errorf("save failed result: %w", saveErr)
		}
		return result, outcome
	}

	credited := req.Amount
	if s.opts.CreditNetOfFees {
		fees, _ := s.Fees(method.ID, req.Amount)
		credited = fees.NetAmount
	}
	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Depósito de crédito via %s", method.Name)
	}
	if _, err := s.ledger.Credit(ctx, req.UserID, credited, description); err != nil {
		// The provider settled, so the transaction id must stay
		// retrievable even though the credit never landed.
		result := Result{
			TransactionID: receipt.TransactionID,
			Status:        StatusFailed,
			Amount:        req.Amount,
			Currency:      req.Currency,
			Method:        method.ID,
			UserID:        req.UserID,
			Timestamp:     time.Now().UTC(),
			ErrorMessage:  fmt.Sprintf("credit ledger: %v", err),
		}
		if saveErr := s.results.Save(ctx, result); saveErr != nil {
			return result, fmt.Errorf("save failed result: %w", saveErr)
		}
		return result, fmt.Errorf("credit ledger for %s: %w", receipt.TransactionID, err)
	}

	result := Result{
		TransactionID:    receipt.TransactionID,
		Status:           StatusCompleted,
		Amount:           req.Amount,
		Currency:         req.Currency,
		Method:           method.ID,
		UserID:           req.UserID,
		Timestamp:        time.Now().UTC(),
		ConfirmationCode: receipt.ConfirmationCode,
	}
	if err := s.results.Save(ctx, result); err != nil {
		return result, fmt.Errorf("save result: %w", err)
	}

	if s.notifier != nil {
		// Receipt delivery is best effort; the payment already settled.
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindPaymentReceipt,
			Destination: req.UserID,
			Body:        fmt.Sprintf("Pagamento confirmado: %d %s via %s (ref %s)", req.Amount, req.Currency, method.Name, result.ConfirmationCode),
		})
	}
	return result, nil
}

// Verify returns the stored outcome for a transaction id. It is a pure
// lookup and never re-credits the ledger.
func (s *Service) Verify(ctx context.Context, transactionID string) (Result, error) {
	return s.results.Get(ctx, transactionID)
}

func failedTransactionID() string {
	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("TX-%d-%s", time.Now().UnixMilli(), short)
}
