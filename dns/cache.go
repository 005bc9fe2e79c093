// Package dns caches reverse lookups of remote addresses.
package dns

import (
	"context"
	"net"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultSize = 4096
	DefaultTTL  = 10 * time.Minute
)

// LookupFunc resolves an address to host names.
type LookupFunc func(ctx context.Context, addr string) ([]string, error)

// Cache remembers reverse lookups, failures included, for a TTL.
type Cache struct {
	lookup  LookupFunc
	entries *expirable.LRU[string, string]
}

// New returns a cache backed by the system resolver.
func New(size int, ttl time.Duration) *Cache {
	return NewWithLookup(size, ttl, net.DefaultResolver.LookupAddr)
}

func NewWithLookup(size int, ttl time.Duration, lookup LookupFunc) *Cache {
	return &Cache{
		lookup:  lookup,
		entries: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

// Resolve returns the first name of addr, or "" when it has none.
func (c *Cache) Resolve(ctx context.Context, addr string) string {
	if name, ok := c.entries.Get(addr); ok {
		return name
	}

	name := ""
	names, err := c.lookup(ctx, addr)
	if err == nil && len(names) > 0 {
		name = names[0]
	}
	c.entries.Add(addr, name)
	return name
}
