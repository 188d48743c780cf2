package token

import (
	"strings"
	"testing"
)

func TestGenerateLengthAndAlphabet(t *testing.T) {
	for _, length := range []int{12, 16, 24} {
		tok, err := Generate(length)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(tok) != length {
			t.Fatalf("expected length %d, got %d", length, len(tok))
		}
		for _, r := range tok {
			if !strings.ContainsRune(alphabet, r) {
				t.Fatalf("token %q contains %q outside the alphabet", tok, r)
			}
		}
	}
}

func TestGenerateFloorsShortLengths(t *testing.T) {
	tok, err := Generate(4)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(tok) != 12 {
		t.Fatalf("expected floor length 12, got %d", len(tok))
	}
}

func TestDefaultLengthValidates(t *testing.T) {
	// Issuance at the default length must always pass the format check,
	// and the default sits above the generator's 12-character floor.
	if DefaultLength < 12 || DefaultLength > 24 {
		t.Fatalf("default length %d outside the 12-24 format range", DefaultLength)
	}
	tok, err := Generate(DefaultLength)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !ValidFormat(tok) {
		t.Fatalf("default-length token %q fails format check", tok)
	}
}

func TestGenerateNoCollisions(t *testing.T) {
	seen := make(map[string]struct{}, 10_000)
	for i := 0; i < 10_000; i++ {
		tok, err := Generate(16)
		if err != nil {
			t.Fatalf("generate %d: %v", i, err)
		}
		if _, dup := seen[tok]; dup {
			t.Fatalf("duplicate token %q after %d draws", tok, i)
		}
		seen[tok] = struct{}{}
	}
}

func TestValidFormat(t *testing.T) {
	cases := []struct {
		candidate string
		want      bool
	}{
		{"ABC123DEF456", true},
		{"84HF92KLS9XJ", true},
		{"abcdefghjkmnpqrstuvwxyz2", true},
		{"short", false},
		{"", false},
		{"ABC123DEF456ABC123DEF4567", false}, // 25 chars
		{"ABC123DEF45!", false},
		{"ABC 123DEF456", false},
	}
	for _, tc := range cases {
		if got := ValidFormat(tc.candidate); got != tc.want {
			t.Fatalf("ValidFormat(%q) = %v, want %v", tc.candidate, got, tc.want)
		}
	}
}

func TestAccessURL(t *testing.T) {
	url := AccessURL("https://tchova.co/", "84HF92KLS9XJ")
	if url != "https://tchova.co/painel/84HF92KLS9XJ" {
		t.Fatalf("unexpected access url %q", url)
	}
}
