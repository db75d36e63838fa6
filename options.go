package chartfind

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	addrs    []string
	password string

	pageSize  int
	cacheSize int
	cacheTTL  time.Duration

	logger *zap.Logger
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithAddrs configures the client with multiple database addresses.
func WithAddrs(addrs ...string) Option {
	return func(c *clientConfig) {
		c.addrs = addrs
	}
}

// WithPageSize sets the number of entities each strategy fetches per page.
func WithPageSize(n int) Option {
	return func(c *clientConfig) {
		c.pageSize = n
	}
}

// WithEntityCache sets the entity cache capacity and time-to-live.
func WithEntityCache(size int, ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cacheSize = size
		c.cacheTTL = ttl
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
