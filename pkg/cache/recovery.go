package cache

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ashpect/ttlstore/pkg/clock"
	"github.com/ashpect/ttlstore/pkg/metrics"
	"github.com/ashpect/ttlstore/pkg/storage"
)

// writeResult is the outcome of a write after any recovery attempt.
type writeResult int

const (
	writeOK writeResult = iota
	// the store stayed full even after expired entries were swept
	writeCapacityExceeded
	writeFailed
)

func (r writeResult) String() string {
	switch r {
	case writeOK:
		return metrics.SuccessLabel
	case writeCapacityExceeded:
		return metrics.CapacityLabel
	default:
		return metrics.FailLabel
	}
}

func resultOf(err error) writeResult {
	switch {
	case err == nil:
		return writeOK
	case storage.IsCapacityExceeded(err):
		return writeCapacityExceeded
	default:
		return writeFailed
	}
}

// write runs persist once. If the store reports it is full, expired entries
// are swept and persist is retried exactly once; whatever happens then is final.
func (c *Cache) write(op, key string, persist func() error) writeResult {
	err := persist()
	res := resultOf(err)
	switch res {
	case writeCapacityExceeded:
		res = c.recoverAndRetry(op, key, persist)
	case writeFailed:
		c.logger.Warn("cache write dropped", zap.String("op", op), zap.String("key", key), zap.Error(err))
	}
	metrics.CacheWrites.WithLabelValues(op, res.String()).Inc()
	return res
}

func (c *Cache) recoverAndRetry(op, key string, persist func() error) writeResult {
	removed := c.FlushExpired()
	err := persist()
	res := resultOf(err)
	if res == writeOK {
		c.logger.Info("cache write succeeded after sweeping expired entries",
			zap.String("op", op), zap.String("key", key), zap.Int("removed", removed))
	} else {
		c.logger.Warn("cache write dropped after sweeping expired entries",
			zap.String("op", op), zap.String("key", key), zap.Int("removed", removed), zap.Error(err))
	}
	metrics.CacheQuotaRecoveries.WithLabelValues(res.String()).Inc()
	return res
}

// FlushExpired removes every entry whose expiry tick is earlier than now and
// returns how many were removed.
func (c *Cache) FlushExpired() int {
	expirable := c.ExpirableKeys()
	now := c.clock.Now()
	expired := lo.PickBy(expirable, func(_ string, at clock.Tick) bool {
		return at < now
	})
	for key := range expired {
		c.Remove(key)
	}
	if len(expired) > 0 {
		metrics.CacheEvictions.WithLabelValues(metrics.SweepLabel).Add(float64(len(expired)))
		c.logger.Debug("swept expired cache entries", zap.Int("removed", len(expired)), zap.Int64("now", int64(now)))
	}
	return len(expired)
}
