package cache

// Handler is a typed view of a Cache.
type Handler[V any] interface {
	// Get returns the value for key and true if present (and not expired).
	Get(key string) (V, bool)

	// Set stores the value for key using the handler's default TTL (if any).
	Set(key string, value V)

	// SetWithTTL stores the value for key with a custom ttl in ticks.
	SetWithTTL(key string, value V, ttl int64)

	// Delete removes the key from the cache.
	Delete(key string)
}

// Typed implements Handler over a Cache for values of type V.
type Typed[V any] struct {
	cache      *Cache
	defaultTTL int64
}

var _ Handler[string] = (*Typed[string])(nil)

// NewHandler returns a typed view of c. Set uses defaultTTL ticks; 0 means
// entries set through Set never expire.
func NewHandler[V any](c *Cache, defaultTTL int64) *Typed[V] {
	return &Typed[V]{cache: c, defaultTTL: defaultTTL}
}

func (t *Typed[V]) Get(key string) (V, bool) {
	var v V
	if !t.cache.Get(key, &v) {
		var zero V
		return zero, false
	}
	return v, true
}

func (t *Typed[V]) Set(key string, value V) {
	t.cache.SetWithTTL(key, value, t.defaultTTL)
}

func (t *Typed[V]) SetWithTTL(key string, value V, ttl int64) {
	t.cache.SetWithTTL(key, value, ttl)
}

func (t *Typed[V]) Delete(key string) {
	t.cache.Remove(key)
}

// Cache returns the underlying cache.
func (t *Typed[V]) Cache() *Cache {
	return t.cache
}
