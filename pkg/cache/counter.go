package cache

import (
	"math"
	"strconv"

	"github.com/ashpect/ttlstore/pkg/keycodec"
)

// Incr adds one to the counter stored under key. A missing or non-numeric
// value counts as 0. The count saturates at math.MaxInt64 rather than
// wrapping. The entry's expiry, if any, is left as is.
func (c *Cache) Incr(key string) {
	c.addToCounter(opIncr, key, 1)
}

// Decr subtracts one from the counter stored under key, saturating at
// math.MinInt64.
func (c *Cache) Decr(key string) {
	c.addToCounter(opDecr, key, -1)
}

// Counter reads the value under key as a base-10 integer, ignoring expiry.
// Missing or non-numeric values read as 0.
func (c *Cache) Counter(key string) int64 {
	raw, ok := c.load(keycodec.ValueKey(key))
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (c *Cache) addToCounter(op, key string, delta int64) writeResult {
	next := strconv.FormatInt(saturatingAdd(c.Counter(key), delta), 10)
	valueKey := keycodec.ValueKey(key)
	return c.write(op, key, func() error {
		return c.store.Save(valueKey, next)
	})
}

func saturatingAdd(n, delta int64) int64 {
	switch {
	case delta > 0 && n > math.MaxInt64-delta:
		return math.MaxInt64
	case delta < 0 && n < math.MinInt64-delta:
		return math.MinInt64
	}
	return n + delta
}
