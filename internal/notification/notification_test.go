package notification

import (
	"context"
	"strings"
	"testing"
)

type sinkNotifier struct {
	last Message
}

func (s *sinkNotifier) Send(_ context.Context, message Message) error {
	s.last = message
	return nil
}

func TestWhatsAppNotifierAttachesDeepLink(t *testing.T) {
	sink := &sinkNotifier{}
	n := NewWhatsAppNotifier("https://wa.me", sink)

	msg := Message{
		Kind:        KindVerificationCode,
		Destination: "+258 84 123 4567",
		Body:        CodeMessage("482193", "5 minutos"),
	}
	if err := n.Send(context.Background(), msg); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.HasPrefix(sink.last.Link, "https://wa.me/258841234567?text=") {
		t.Fatalf("unexpected deep link %q", sink.last.Link)
	}
	if sink.last.Body != msg.Body {
		t.Fatalf("body altered in transit: %q", sink.last.Body)
	}

	// Non-code messages pass through without a link.
	receipt := Message{Kind: KindPaymentReceipt, Destination: "u1", Body: "Pagamento confirmado"}
	if err := n.Send(context.Background(), receipt); err != nil {
		t.Fatalf("send receipt: %v", err)
	}
	if sink.last.Link != "" {
		t.Fatalf("receipt carried a deep link: %q", sink.last.Link)
	}
}

func TestFormatCode(t *testing.T) {
	if got := FormatCode("482193"); got != "482 193" {
		t.Fatalf("expected grouped code, got %q", got)
	}
	// Anything that is not six digits passes through untouched.
	if got := FormatCode("1234"); got != "1234" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestWhatsAppLinkStripsNonDigits(t *testing.T) {
	link := WhatsAppLink("https://wa.me", "+258 84 123 4567", "Olá, preciso de ajuda")
	if !strings.HasPrefix(link, "https://wa.me/258841234567?text=") {
		t.Fatalf("unexpected link %q", link)
	}
	if strings.ContainsAny(link, " +") {
		t.Fatalf("link not fully escaped: %q", link)
	}
}
