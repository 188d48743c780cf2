package payments

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ProviderReceipt is what a provider returns for an accepted payment.
type ProviderReceipt struct {
	TransactionID    string
	ConfirmationCode string
}

// Provider is one external payment connector. Implementations must
// honor ctx cancellation while waiting on the remote side.
type Provider interface {
	Process(ctx context.Context, req Request) (ProviderReceipt, error)
}

// Simulator stands in for a real provider connector. Latency and the
// random source are injectable so tests run fast and deterministically.
type Simulator struct {
	prefix      string
	latency     time.Duration
	successRate float64
	declineMsg  string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator builds a simulated provider. successRate is in [0, 1];
// 1 means the provider never declines.
func NewSimulator(prefix string, latency time.Duration, successRate float64, declineMsg string) *Simulator {
	return &Simulator{
		prefix:      prefix,
		latency:     latency,
		successRate: successRate,
		declineMsg:  declineMsg,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Seed replaces the random source, for deterministic tests.
func (s *Simulator) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rand.New(rand.NewSource(seed))
}

func (s *Simulator) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Process waits out the simulated network latency and then settles or
// declines the payment according to the configured success rate.
func (s *Simulator) Process(ctx context.Context, req Request) (ProviderReceipt, error) {
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ProviderReceipt{}, ctx.Err()
	}

	if s.roll() >= s.successRate {
		return ProviderReceipt{}, fmt.Errorf("%w: %s", ErrProviderDeclined, s.declineMsg)
	}

	short := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return ProviderReceipt{
		TransactionID:    fmt.Sprintf("%s-%d-%s", s.prefix, time.Now().UnixMilli(), short),
		ConfirmationCode: strings.ToUpper(short),
	}, nil
}

// DefaultProviders wires one simulator per method type with the
// production latency and decline profile. Mobile wallets fail a few
// percent of the time, PayPal and crypto always settle but are slower.
func DefaultProviders() map[MethodType]Provider {
	return map[MethodType]Provider{
		TypeMPesa:   NewSimulator("MP", 2*time.Second, 0.90, "Falha no processamento do pagamento M-Pesa"),
		TypeEmola:   NewSimulator("EM", 1500*time.Millisecond, 0.95, "Falha no processamento do pagamento E-mola"),
		TypePayPal:  NewSimulator("PP", 3*time.Second, 1.0, ""),
		TypeCard:    NewSimulator("CC", 2500*time.Millisecond, 0.98, "Pagamento com cartão recusado"),
		TypeBitcoin: NewSimulator("BTC", 5*time.Second, 1.0, ""),
	}
}
