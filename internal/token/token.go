// Package token generates and validates opaque client access tokens.
//
// A token is the sole credential for viewing a project in the client
// portal, so it is drawn from a cryptographically secure source and
// never derived from a counter or timestamp.
package token

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultLength is the issuance length for new tokens. Generate
	// itself accepts anything down to the 12-character format minimum.
	DefaultLength = 16

	// alphabet excludes visually ambiguous glyphs (0/O, 1/l/I/i) so tokens
	// survive being read over the phone or typed from a printed note.
	alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"
)

// formatPattern accepts 12-24 alphanumeric characters. Tokens issued before
// the ambiguous-glyph alphabet was introduced still validate.
var formatPattern = regexp.MustCompile(`^[A-Za-z0-9]{12,24}$`)

// Generate returns a random token of the requested length, floored at 12.
func Generate(length int) (string, error) {
	if length < 12 {
		length = 12
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	var b strings.Builder
	b.Grow(length)
	for _, c := range buf {
		b.WriteByte(alphabet[int(c)%len(alphabet)])
	}
	return b.String(), nil
}

// ValidFormat reports whether the candidate looks like an access token.
// Callers reject malformed input before any repository lookup.
func ValidFormat(candidate string) bool {
	return formatPattern.MatchString(candidate)
}

// AccessURL builds the portal deep link a client follows to open their
// project page.
func AccessURL(baseURL, tok string) string {
	return fmt.Sprintf("%s/painel/%s", strings.TrimSuffix(baseURL, "/"), tok)
}
