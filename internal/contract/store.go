// Package contract implements the environment contract store: the single
// persisted configuration ledger read and rewritten by every deployment
// stage. The store resolves defaults and canonical/alias key pairs in
// memory and writes back through an atomic upsert, so re-running the
// pipeline against a populated ledger never changes resolved values.
package contract

import (
	"fmt"
	"sort"
)

// Origin records how a contract entry obtained its value.
type Origin string

const (
	// OriginDefault marks a value applied by ResolveDefault.
	OriginDefault Origin = "default"
	// OriginLoaded marks a value read from the ledger file.
	OriginLoaded Origin = "loaded"
	// OriginGenerated marks a value produced by the secret materializer.
	OriginGenerated Origin = "generated"
	// OriginOverride marks an operator-supplied value.
	OriginOverride Origin = "override"
)

// Entry is one configuration item held by the store.
type Entry struct {
	Key       string
	Value     string
	Origin    Origin
	Persisted bool
}

// Store holds the resolved contract for one pipeline invocation.
// It is not safe for concurrent use; the pipeline is strictly sequential
// and single-operator, single-host operation is a documented precondition.
type Store struct {
	path    string
	entries map[string]Entry
	// aliases maps a secondary accepted name to its canonical key.
	// Only the canonical key is ever persisted.
	aliases map[string]string
}

// NewStore creates an empty store bound to the ledger at path.
func NewStore(path string) *Store {
	return &Store{
		path:    path,
		entries: make(map[string]Entry),
		aliases: make(map[string]string),
	}
}

// Path returns the ledger file path the store is bound to.
func (s *Store) Path() string {
	return s.path
}

// Load reads the ledger file and binds every well-formed KEY=VALUE line.
// A missing file yields an empty store, not an error; callers run
// EnsureFile first when the file is required to exist afterwards.
func (s *Store) Load() error {
	entries, err := readLedger(s.path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		s.entries[e.Key] = Entry{Key: e.Key, Value: e.Value, Origin: OriginLoaded, Persisted: true}
	}
	return nil
}

// Lookup returns the value bound to key and whether it is set. Alias names
// are transparently resolved to their canonical key.
func (s *Store) Lookup(key string) (string, bool) {
	if canonical, ok := s.aliases[key]; ok {
		key = canonical
	}
	e, ok := s.entries[key]
	if !ok || e.Value == "" {
		return "", false
	}
	return e.Value, true
}

// Get returns the value bound to key, or the empty string.
func (s *Store) Get(key string) string {
	v, _ := s.Lookup(key)
	return v
}

// Set binds key to value with the given origin and marks it for
// persistence. Alias names are redirected to their canonical key.
func (s *Store) Set(key, value string, origin Origin) {
	if canonical, ok := s.aliases[key]; ok {
		key = canonical
	}
	s.entries[key] = Entry{Key: key, Value: value, Origin: origin, Persisted: true}
}

// ResolveDefault binds key to fallback only if key has no value yet, and
// returns the bound value. A previously loaded, generated, or overridden
// value always wins; this is the idempotence primitive every configuration
// default goes through.
func (s *Store) ResolveDefault(key, fallback string) string {
	if v, ok := s.Lookup(key); ok {
		return v
	}
	s.Set(key, fallback, OriginDefault)
	return fallback
}

// ResolveAlias registers alias as a secondary name for canonical and
// reconciles their values: whichever of the two is set fills the other.
// After resolution both names read the same value, and only the canonical
// key is persisted.
func (s *Store) ResolveAlias(canonical, alias string) {
	canonValue, canonSet := s.lookupRaw(canonical)
	aliasValue, aliasSet := s.lookupRaw(alias)

	switch {
	case !canonSet && aliasSet:
		s.entries[canonical] = Entry{Key: canonical, Value: aliasValue, Origin: OriginLoaded, Persisted: true}
	case canonSet && !aliasSet:
		// Nothing to copy; the alias map below makes the name readable.
		_ = canonValue
	}

	// The alias becomes a process-local view; drop any persisted entry
	// stored under the deprecated name so exactly one name hits the disk.
	delete(s.entries, alias)
	s.aliases[alias] = canonical
}

// Require returns the value bound to key or a configuration error when the
// key resolved to nothing. Callers treat the error as fatal; the pipeline
// must not proceed past an unresolvable required key.
func (s *Store) Require(key string) (string, error) {
	v, ok := s.Lookup(key)
	if !ok {
		return "", fmt.Errorf("required contract key %s is not set: no default, override, or generated value", key)
	}
	return v, nil
}

// PersistedEntries returns the entries marked for persistence, sorted by
// key so that Persist output is deterministic.
func (s *Store) PersistedEntries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.Persisted {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Persist upserts every persisted entry into the ledger file: existing
// lines for known keys are replaced in place, unknown lines are preserved
// verbatim, and new keys are appended. The write goes through a temporary
// file and an atomic rename, and the ledger keeps owner-only permissions.
func (s *Store) Persist() error {
	pairs := make(map[string]string)
	for _, e := range s.PersistedEntries() {
		pairs[e.Key] = e.Value
	}
	return upsertLedger(s.path, pairs)
}

// lookupRaw reads an entry without alias redirection.
func (s *Store) lookupRaw(key string) (string, bool) {
	e, ok := s.entries[key]
	if !ok || e.Value == "" {
		return "", false
	}
	return e.Value, true
}
