package cache

import (
	"strconv"
	"strings"
)

// Key identifies a cached payload. Parts are quoted before joining so a part
// containing the separator can never collide with a different key.
type Key struct {
	Provider string
	Parts    []string
}

// NewKey builds a key for provider from the ordered parts.
func NewKey(provider string, parts ...string) Key {
	return Key{Provider: provider, Parts: parts}
}

// Encoded returns the storage form of the key parts, without the provider.
func (k Key) Encoded() string {
	quoted := make([]string, len(k.Parts))
	for i, part := range k.Parts {
		quoted[i] = strconv.Quote(part)
	}
	return strings.Join(quoted, ":")
}

func (k Key) String() string {
	return k.Provider + "/" + k.Encoded()
}
