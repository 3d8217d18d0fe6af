package cache

import (
	"reflect"
	"strconv"

	"github.com/cockroachdb/errors"

	"go.uber.org/zap"

	"github.com/ashpect/ttlstore/pkg/clock"
	"github.com/ashpect/ttlstore/pkg/keycodec"
	"github.com/ashpect/ttlstore/pkg/metrics"
	"github.com/ashpect/ttlstore/pkg/storage"
)

const (
	opGet     = "get"
	opSet     = "set"
	opAdd     = "add"
	opReplace = "replace"
	opIncr    = "incr"
	opDecr    = "decr"
)

// Get decodes the value stored under key into out, which must be a pointer.
// It returns false when the key is absent, has expired, or its value cannot
// be decoded into out. out is only written on a hit. An expired entry is
// removed before returning.
func (c *Cache) Get(key string, out any) bool {
	raw, ok := c.load(keycodec.ValueKey(key))
	if !ok {
		metrics.CacheRequests.WithLabelValues(opGet, metrics.MissLabel).Inc()
		return false
	}
	if c.HasExpired(key) {
		c.Remove(key)
		metrics.CacheRequests.WithLabelValues(opGet, metrics.ExpiredLabel).Inc()
		metrics.CacheEvictions.WithLabelValues(metrics.LazyLabel).Inc()
		return false
	}
	if err := c.decodeInto(raw, out); err != nil {
		c.logger.Debug("undecodable cache value", zap.String("key", key), zap.Error(err))
		metrics.CacheRequests.WithLabelValues(opGet, metrics.CorruptLabel).Inc()
		return false
	}
	metrics.CacheRequests.WithLabelValues(opGet, metrics.HitLabel).Inc()
	return true
}

// decodeInto decodes raw into a fresh value of out's element type and copies
// it into out only when decoding succeeds.
func (c *Cache) decodeInto(raw string, out any) error {
	dst := reflect.ValueOf(out)
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return errors.Newf("decode target must be a non-nil pointer, got %T", out)
	}
	fresh := reflect.New(dst.Type().Elem())
	if err := c.codec.Decode(raw, fresh.Interface()); err != nil {
		return err
	}
	dst.Elem().Set(fresh.Elem())
	return nil
}

// Set stores value under key with no expiry, dropping any expiry the key had.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, 0)
}

// SetWithTTL stores value under key, expiring ttl ticks from now. A ttl of 0
// stores a non-expiring entry; a negative ttl stores an entry that is already
// expired.
func (c *Cache) SetWithTTL(key string, value any, ttl int64) {
	c.set(opSet, key, value, ttl)
}

// Add is Set, but only when key holds no live entry. An expired entry that
// has not been removed yet counts as absent.
func (c *Cache) Add(key string, value any) {
	c.AddWithTTL(key, value, 0)
}

func (c *Cache) AddWithTTL(key string, value any, ttl int64) {
	if c.isLive(key) {
		return
	}
	c.set(opAdd, key, value, ttl)
}

// Replace is Set, but only when key holds a live entry.
func (c *Cache) Replace(key string, value any) {
	c.ReplaceWithTTL(key, value, 0)
}

func (c *Cache) ReplaceWithTTL(key string, value any, ttl int64) {
	if !c.isLive(key) {
		return
	}
	c.set(opReplace, key, value, ttl)
}

// Remove deletes both records of key. Removing an absent key is a no-op.
func (c *Cache) Remove(key string) {
	for _, physical := range []string{keycodec.ValueKey(key), keycodec.ExpiryKey(key)} {
		if err := c.store.Remove(physical); err != nil {
			c.logger.Warn("remove cache record failed", zap.String("key", physical), zap.Error(err))
		}
	}
}

// HasExpired reports whether key carries an expiry tick earlier than now.
// It only looks at the expiry record: a key without one, present or not,
// has not expired.
func (c *Cache) HasExpired(key string) bool {
	at, ok := c.expiresOn(key)
	return ok && at < c.clock.Now()
}

// ExpiresOn returns the expiry tick recorded for key, if any.
func (c *Cache) ExpiresOn(key string) (clock.Tick, bool) {
	return c.expiresOn(key)
}

func (c *Cache) expiresOn(key string) (clock.Tick, bool) {
	raw, ok := c.load(keycodec.ExpiryKey(key))
	if !ok {
		return 0, false
	}
	return parseTick(raw)
}

func (c *Cache) isLive(key string) bool {
	if _, ok := c.load(keycodec.ValueKey(key)); !ok {
		return false
	}
	return !c.HasExpired(key)
}

func (c *Cache) set(op, key string, value any, ttl int64) writeResult {
	encoded, err := c.codec.Encode(value)
	if err != nil {
		c.logger.Warn("encode cache value failed", zap.String("op", op), zap.String("key", key), zap.Error(err))
		metrics.CacheWrites.WithLabelValues(op, metrics.FailLabel).Inc()
		return writeFailed
	}
	return c.write(op, key, func() error {
		return c.putEntry(key, encoded, ttl)
	})
}

// putEntry writes the records of one entry. With a TTL the expiry goes first
// so that a failed value write never leaves a non-expiring entry behind.
func (c *Cache) putEntry(key, encoded string, ttl int64) error {
	valueKey, expiryKey := keycodec.ValueKey(key), keycodec.ExpiryKey(key)
	if ttl != 0 {
		expiresAt := c.clock.Now() + clock.Tick(ttl)
		if err := c.store.Save(expiryKey, formatTick(expiresAt)); err != nil {
			return err
		}
		return c.store.Save(valueKey, encoded)
	}
	if err := c.store.Save(valueKey, encoded); err != nil {
		return err
	}
	return c.store.Remove(expiryKey)
}

// load returns the record under a physical key. Read errors other than
// absence are logged and reported as absence.
func (c *Cache) load(physical string) (string, bool) {
	raw, err := c.store.Load(physical)
	if err != nil {
		if !storage.IsNotFound(err) {
			c.logger.Warn("load cache record failed", zap.String("key", physical), zap.Error(err))
		}
		return "", false
	}
	return raw, true
}

func formatTick(t clock.Tick) string {
	return strconv.FormatInt(int64(t), 10)
}

func parseTick(raw string) (clock.Tick, bool) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return clock.Tick(n), true
}
