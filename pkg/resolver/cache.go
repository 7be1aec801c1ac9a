package resolver

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultCacheTTL is the default lifetime of a cached positive resolution.
const DefaultCacheTTL = 10 * time.Minute

// CachingResolver decorates a Resolver with a TTL cache of positive
// resolutions, mirroring the teacher's CachingTrustEvaluator in
// pkg/trust/cache.go: a resolution failure is never cached, only a
// success, so a transient lookup failure does not poison future attempts.
// Per spec.md §5, any resolver wrapping a networked collaborator needs a
// thread-safe, read-majority cache; the generic InMemoryResolver itself
// needs no cache (its lookups are already O(1) map reads), so this
// decorator is offered for resolvers that do I/O, not applied by default.
type CachingResolver struct {
	inner Resolver
	cache *ttlcache.Cache[string, *ResolvedController]
}

// NewCachingResolver wraps inner with a cache of the given TTL. If ttl is
// zero, DefaultCacheTTL is used.
func NewCachingResolver(inner Resolver, ttl time.Duration) *CachingResolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	cache := ttlcache.New[string, *ResolvedController](
		ttlcache.WithTTL[string, *ResolvedController](ttl),
	)
	go cache.Start()

	return &CachingResolver{
		inner: inner,
		cache: cache,
	}
}

// ResolveController implements Resolver.
func (c *CachingResolver) ResolveController(ctx context.Context, identifier string) (*ResolvedController, error) {
	controllerID := controllerIDOf(identifier)

	if item := c.cache.Get(controllerID); item != nil {
		return item.Value(), nil
	}

	rc, err := c.inner.ResolveController(ctx, identifier)
	if err != nil {
		return nil, err
	}

	c.cache.Set(controllerID, rc, ttlcache.DefaultTTL)
	return rc, nil
}

// Stop halts the cache's background cleanup goroutine. Callers that create
// a CachingResolver for the lifetime of a process do not need to call this.
func (c *CachingResolver) Stop() {
	c.cache.Stop()
}
