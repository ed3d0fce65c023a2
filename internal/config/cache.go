package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware. When
// Enabled is false or no Redis client is configured, caching is skipped.
// Responses larger than MaxBodyBytes are never stored.
type CacheConfig struct {
	Enabled      bool          `env:"CACHE_ENABLED" envDefault:"true"`
	Methods      []string      `env:"CACHE_METHODS" envSeparator:"," envDefault:"GET"`
	TTL          time.Duration `env:"CACHE_TTL" envDefault:"60s"`
	Prefix       string        `env:"CACHE_PREFIX" envDefault:"cache"`
	MaxBodyBytes int           `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`
}

func (c *CacheConfig) normalize() {
	methods := c.Methods[:0]
	for _, m := range c.Methods {
		if m = strings.ToUpper(strings.TrimSpace(m)); m != "" {
			methods = append(methods, m)
		}
	}
	c.Methods = methods
	if c.TTL <= 0 {
		c.TTL = time.Second
	}
}

// Caches reports whether responses to method may be stored.
func (c CacheConfig) Caches(method string) bool {
	for _, m := range c.Methods {
		if m == method {
			return true
		}
	}
	return false
}
