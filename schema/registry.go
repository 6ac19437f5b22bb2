package schema

import (
	"reflect"

	lru "github.com/hashicorp/golang-lru/v2"
)

// registrySize bounds the metadata cache. Typical applications query a
// handful of entity types; 512 leaves ample headroom.
const registrySize = 512

// Registry caches derived metadata keyed by type identity. Derivation runs
// once per type; concurrent first use is safe, the first completed write
// wins and later lookups return the same immutable value.
type Registry struct {
	cache *lru.Cache[reflect.Type, *EntityMetadata]
}

// NewRegistry creates an empty metadata registry.
func NewRegistry() *Registry {
	cache, err := lru.New[reflect.Type, *EntityMetadata](registrySize)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(err)
	}
	return &Registry{cache: cache}
}

// Lookup returns the cached metadata for t, deriving it on first use.
// The stream override applies only on the deriving call; cached entries are
// never re-derived.
func (r *Registry) Lookup(t reflect.Type, stream string) *EntityMetadata {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if meta, ok := r.cache.Get(t); ok {
		return meta
	}

	meta := Derive(t, stream)
	if prior, existed, _ := r.cache.PeekOrAdd(t, meta); existed {
		return prior
	}
	return meta
}

// LookupFor returns the cached metadata for the type of v.
func (r *Registry) LookupFor(v any, stream string) *EntityMetadata {
	return r.Lookup(reflect.TypeOf(v), stream)
}
