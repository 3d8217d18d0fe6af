package cache

import (
	"go.uber.org/zap"

	"github.com/ashpect/ttlstore/pkg/clock"
	"github.com/ashpect/ttlstore/pkg/serde"
)

// Option is a functional option for building a Cache.
type Option func(*Cache)

// WithClock sets the clock used to stamp and compare expiry ticks.
func WithClock(clk clock.Clock) Option {
	return func(c *Cache) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithCodec sets the codec used for values. Counters are stored as decimal
// strings regardless of the codec.
func WithCodec(codec serde.Codec) Option {
	return func(c *Cache) {
		if codec != nil {
			c.codec = codec
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}
