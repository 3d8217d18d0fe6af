// Package cache layers expiring entries over a flat storage.Storage.
//
// Each logical entry occupies up to two physical records: the encoded value
// under keycodec.ValueKey and, when the entry has a TTL, its expiry tick under
// keycodec.ExpiryKey. Expiration is lazy: expired entries are removed when a
// read observes them, by FlushExpired, or by the sweep that runs when the store
// reports it is full. Nothing runs in the background.
//
// The Cache holds no locks. The two records of an entry are written
// separately, and Incr/Decr, Add and Replace are read-then-write sequences, so
// concurrent writers of the same key can interleave. Every write is best effort:
// failures are logged and counted, never returned.
package cache

import (
	"go.uber.org/zap"

	"github.com/ashpect/ttlstore/pkg/clock"
	"github.com/ashpect/ttlstore/pkg/log"
	"github.com/ashpect/ttlstore/pkg/serde"
	"github.com/ashpect/ttlstore/pkg/storage"
)

type Cache struct {
	store  storage.Storage
	codec  serde.Codec
	clock  clock.Clock
	logger *zap.Logger
}

// New returns a cache over store using the JSON codec and the system clock
// unless options say otherwise.
func New(store storage.Storage, opts ...Option) *Cache {
	c := &Cache{
		store: store,
		codec: serde.JSON,
		clock: clock.System,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.With(zap.String("component", "cache"))
	}
	return c
}

// Storage returns the host store the cache writes to.
func (c *Cache) Storage() storage.Storage {
	return c.store
}

func (c *Cache) Now() clock.Tick {
	return c.clock.Now()
}
