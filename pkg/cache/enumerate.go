package cache

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ashpect/ttlstore/pkg/clock"
	"github.com/ashpect/ttlstore/pkg/keycodec"
)

// Keys returns every logical key that has a value record, expired or not.
// The order is whatever the store yields and must not be relied on.
func (c *Cache) Keys() []string {
	return lo.FilterMap(c.physicalKeys(), func(physical string, _ int) (string, bool) {
		return keycodec.DecodeValueKey(physical)
	})
}

// ExpirableKeys maps every key that has an expiry record to its expiry tick,
// including ticks that have already passed. Records that do not parse as a
// tick are left out.
func (c *Cache) ExpirableKeys() map[string]clock.Tick {
	result := make(map[string]clock.Tick)
	for _, physical := range c.physicalKeys() {
		key, ok := keycodec.DecodeExpiryKey(physical)
		if !ok {
			continue
		}
		raw, ok := c.load(physical)
		if !ok {
			continue
		}
		at, ok := parseTick(raw)
		if !ok {
			c.logger.Debug("skip unparsable expiry record", zap.String("key", physical), zap.String("value", raw))
			continue
		}
		result[key] = at
	}
	return result
}

func (c *Cache) physicalKeys() []string {
	keys, err := c.store.Keys()
	if err != nil {
		c.logger.Warn("enumerate store keys failed", zap.Error(err))
		return nil
	}
	return keys
}
