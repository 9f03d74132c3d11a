// Package normalization maps loosely written enum input (mixed case,
// stray whitespace, aliases) onto canonical constants.
package normalization

import (
	"sort"
	"strings"
)

// Normalizer resolves raw strings against a fixed table of spellings.
type Normalizer[T ~string] struct {
	values map[string]T
	keys   []string
}

// New builds a normalizer from spelling -> value. Keys are matched after
// lowercasing and trimming.
func New[T ~string](values map[string]T) *Normalizer[T] {
	n := &Normalizer[T]{values: make(map[string]T, len(values))}
	for k, v := range values {
		key := clean(k)
		n.values[key] = v
		n.keys = append(n.keys, key)
	}
	sort.Strings(n.keys)
	return n
}

// Lookup returns the canonical value for raw and whether it was known.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	v, ok := n.values[clean(raw)]
	return v, ok
}

// Normalize returns the canonical value for raw. Unknown input comes back
// trimmed but otherwise untouched so validation can report it verbatim.
func (n *Normalizer[T]) Normalize(raw T) T {
	if v, ok := n.Lookup(string(raw)); ok {
		return v
	}
	return T(strings.TrimSpace(string(raw)))
}

// ValidKeys lists the accepted spellings, sorted.
func (n *Normalizer[T]) ValidKeys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
