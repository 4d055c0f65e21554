package location

import (
	"context"
	log "log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultCacheTTL = 5 * time.Minute
	currentKey      = "current"
)

type Resolver interface {
	Resolve(ctx context.Context) Fix
}

// Cached keeps the last fix around for the displays. Alerts should go to the
// underlying Resolver directly.
type Cached struct {
	src   Resolver
	cache *gocache.Cache
}

func NewCached(src Resolver, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{
		src:   src,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *Cached) Current(ctx context.Context) Fix {
	if v, ok := c.cache.Get(currentKey); ok {
		return v.(Fix)
	}

	fix := c.src.Resolve(ctx)
	c.cache.SetDefault(currentKey, fix)
	return fix
}

// Refresh forgets the cached fix; the next Current call resolves again.
func (c *Cached) Refresh() {
	c.cache.Delete(currentKey)
	log.Info("Location refreshed")
}
