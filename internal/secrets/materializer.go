// Package secrets materializes generated credentials into the environment
// contract. Secrets are generated exactly once, the first time a stage asks
// for a key that has no value; an existing value is never rotated by this
// tool. Credential rotation is an operator action, performed by editing the
// contract file directly.
package secrets

import (
	"fmt"

	"github.com/datadock/datadock/internal/contract"
)

// Generator produces one credential value.
type Generator func() (string, error)

// Materializer binds generated credentials into a contract store.
type Materializer struct {
	store *contract.Store
}

// NewMaterializer creates a materializer over the given store.
func NewMaterializer(store *contract.Store) *Materializer {
	return &Materializer{store: store}
}

// Ensure returns the value bound to key, generating and binding one with
// gen only when the key is absent or empty. The generated value is marked
// for persistence; credential stability across runs depends on the caller
// persisting the store before the process exits.
func (m *Materializer) Ensure(key string, gen Generator) (string, error) {
	if v, ok := m.store.Lookup(key); ok {
		return v, nil
	}
	v, err := gen()
	if err != nil {
		return "", fmt.Errorf("generate secret %s: %w", key, err)
	}
	m.store.Set(key, v, contract.OriginGenerated)
	return v, nil
}

// EnsureToken is the common case: a URL-safe random token of n bytes of
// entropy.
func (m *Materializer) EnsureToken(key string, n int) (string, error) {
	return m.Ensure(key, TokenGenerator(n))
}
