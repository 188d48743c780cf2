package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

const (
	// KindVerificationCode indicates an OTP delivery for a sensitive action.
	KindVerificationCode = "verification_code"
	// KindPaymentReceipt indicates a completed payment confirmation.
	KindPaymentReceipt = "payment_receipt"
)

// Message describes a notification payload. Destination is a phone number in
// international format. Link, when set, is the delivery deep link the
// operator channel hands to the client.
type Message struct {
	Kind        string
	Destination string
	Body        string
	Link        string
}

// Notifier delivers messages over a channel that is out-of-band relative to
// the portal session (SMS, WhatsApp). The core never shows a verification
// code to the requester directly.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the
// logger. Used in development and tests.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	attrs := []any{"kind", message.Kind, "destination", message.Destination, "body", message.Body}
	if message.Link != "" {
		attrs = append(attrs, "link", message.Link)
	}
	n.logger.Info("notification", attrs...)
	return nil
}

// WhatsAppNotifier decorates a delivery channel with a wa.me deep link
// for verification codes, so the operator side can forward the code to
// the client's registered phone with one tap.
type WhatsAppNotifier struct {
	baseURL string
	next    Notifier
}

// NewWhatsAppNotifier wraps next with WhatsApp deep-link construction.
func NewWhatsAppNotifier(baseURL string, next Notifier) *WhatsAppNotifier {
	return &WhatsAppNotifier{baseURL: baseURL, next: next}
}

// Send attaches the deep link to code deliveries and forwards the
// message. Other kinds pass through untouched.
func (n *WhatsAppNotifier) Send(ctx context.Context, message Message) error {
	if message.Kind == KindVerificationCode {
		message.Link = WhatsAppLink(n.baseURL, message.Destination, message.Body)
	}
	return n.next.Send(ctx, message)
}

// FormatCode renders a 6-digit code for human reading, e.g. "482 193".
func FormatCode(code string) string {
	if len(code) != 6 {
		return code
	}
	return code[:3] + " " + code[3:]
}

// CodeMessage builds the delivery text for a verification code.
func CodeMessage(code string, validity string) string {
	return fmt.Sprintf("Tchova Digital: Seu código de verificação é %s. Válido por %s.", FormatCode(code), validity)
}

// WhatsAppLink builds a wa.me deep link carrying the message, with all
// non-digit characters stripped from the phone number.
func WhatsAppLink(baseURL, phone, body string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return fmt.Sprintf("%s/%s?text=%s", strings.TrimSuffix(baseURL, "/"), digits, url.QueryEscape(body))
}
