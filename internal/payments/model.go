// Package payments validates payment requests, dispatches them to
// provider connectors and credits the ledger on success.
package payments

import (
	"errors"
	"time"
)

var (
	// ErrMethodNotFound indicates an unknown payment method id. Checked
	// before any provider or ledger interaction.
	ErrMethodNotFound = errors.New("payment method not found")

	// ErrBelowMinimum and ErrAboveMaximum reject amounts outside the
	// method's configured bounds before any provider call.
	ErrBelowMinimum = errors.New("amount below method minimum")
	ErrAboveMaximum = errors.New("amount above method maximum")

	// ErrUnsupportedCurrency rejects a currency the method cannot settle.
	ErrUnsupportedCurrency = errors.New("currency not supported by method")

	// ErrProviderDeclined indicates the provider rejected the payment.
	ErrProviderDeclined = errors.New("payment declined by provider")

	// ErrProviderTimeout indicates the provider call exceeded its
	// deadline. Distinguished from a decline so the page layer can offer
	// a retry.
	ErrProviderTimeout = errors.New("payment provider timed out")

	// ErrResultNotFound indicates an unknown transaction id.
	ErrResultNotFound = errors.New("payment result not found")
)

// MethodType identifies the provider family behind a payment method.
type MethodType string

const (
	TypeMPesa   MethodType = "mpesa"
	TypeEmola   MethodType = "emola"
	TypePayPal  MethodType = "paypal"
	TypeCard    MethodType = "card"
	TypeBitcoin MethodType = "bitcoin"
)

// MethodConfig carries the operational limits of a payment method.
type MethodConfig struct {
	MerchantID          string
	SupportedCurrencies []string
	MinAmount           int64
	MaxAmount           int64
	// ProcessingFee is a percentage, e.g. 2.9 for 2.9%.
	ProcessingFee float64
}

// Method is a registered payment channel.
type Method struct {
	ID          string
	Name        string
	Type        MethodType
	Description string
	Enabled     bool
	Config      MethodConfig
}

// SupportsCurrency reports whether the method settles the given currency.
func (m Method) SupportsCurrency(currency string) bool {
	for _, c := range m.Config.SupportedCurrencies {
		if c == currency {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a payment result.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Request captures one payment attempt from the page layer.
type Request struct {
	Amount      int64
	Currency    string
	MethodID    string
	UserID      string
	Description string
}

// Result is the normalized outcome of a processed request. Exactly one
// result is ever created per dispatched request, successes and failures
// alike.
type Result struct {
	TransactionID    string
	Status           Status
	Amount           int64
	Currency         string
	Method           string
	UserID           string
	Timestamp        time.Time
	ConfirmationCode string
	ErrorMessage     string
}

// Fees is the outcome of the pure fee computation. It never influences
// what the ledger is credited unless net crediting is configured.
type Fees struct {
	Fee       int64
	NetAmount int64
}

// DefaultMethods mirrors the production method registry.
func DefaultMethods() []Method {
	return []Method{
		{
			ID: "mpesa", Name: "M-Pesa", Type: TypeMPesa,
			Description: "Pagamento via M-Pesa (Vodacom)", Enabled: true,
			Config: MethodConfig{MerchantID: "TCHOVA001", SupportedCurrencies: []string{"MZN"}, MinAmount: 10, MaxAmount: 50_000},
		},
		{
			ID: "emola", Name: "E-mola", Type: TypeEmola,
			Description: "Pagamento via E-mola (Movitel)", Enabled: true,
			Config: MethodConfig{MerchantID: "TCHOVA001", SupportedCurrencies: []string{"MZN"}, MinAmount: 5, MaxAmount: 25_000},
		},
		{
			ID: "paypal", Name: "PayPal", Type: TypePayPal,
			Description: "Pagamento internacional via PayPal", Enabled: true,
			Config: MethodConfig{SupportedCurrencies: []string{"USD", "EUR", "MZN"}, MinAmount: 1, MaxAmount: 10_000, ProcessingFee: 2.9},
		},
		{
			ID: "visa", Name: "Cartão Visa/Mastercard", Type: TypeCard,
			Description: "Pagamento com cartão internacional", Enabled: true,
			Config: MethodConfig{SupportedCurrencies: []string{"USD", "EUR", "MZN"}, MinAmount: 5, MaxAmount: 5_000, ProcessingFee: 3.4},
		},
		{
			ID: "bitcoin", Name: "Bitcoin/Crypto", Type: TypeBitcoin,
			Description: "Pagamento com criptomoedas", Enabled: true,
			Config: MethodConfig{SupportedCurrencies: []string{"BTC", "ETH", "USDT"}, MinAmount: 1, MaxAmount: 100_000, ProcessingFee: 1},
		},
	}
}
