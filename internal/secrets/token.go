package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenGenerator returns a Generator producing a URL-safe token carrying n
// bytes of entropy from the operating system CSPRNG. The encoded value
// contains only [A-Za-z0-9_-], so it is safe to embed in connection URLs
// and chart values without escaping.
func TokenGenerator(n int) Generator {
	return func() (string, error) {
		if n <= 0 {
			return "", fmt.Errorf("token length must be positive, got %d", n)
		}
		buf := make([]byte, n)
		if _, err := rand.Read(buf); err != nil {
			// No degraded fallback: a credential from a weak source is
			// worse than a failed run.
			return "", fmt.Errorf("read entropy: %w", err)
		}
		return base64.RawURLEncoding.EncodeToString(buf), nil
	}
}
