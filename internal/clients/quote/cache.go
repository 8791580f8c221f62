package quote

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	rateLimitedKey  = "provider:rate-limited"
	cleanupInterval = 5 * time.Minute
)

// Provider looks up a quote for a normalized symbol.
type Provider interface {
	FetchQuote(ctx context.Context, symbol string) (Outcome, error)
}

// CachedProvider keeps recent quotes in memory and stops calling the provider while it is rate limited.
type CachedProvider struct {
	cache    *cache.Cache
	provider Provider
	ttl      time.Duration
	cooldown time.Duration
}

// NewCachedProvider creates a CachedProvider. A zero ttl disables quote caching and a zero cooldown
// disables the rate-limit backoff.
func NewCachedProvider(provider Provider, ttl, cooldown time.Duration) *CachedProvider {
	return &CachedProvider{
		cache:    cache.New(ttl, cleanupInterval),
		provider: provider,
		ttl:      ttl,
		cooldown: cooldown,
	}
}

// FetchQuote returns a cached Found outcome when one is fresh, RateLimited with the remaining cooldown while the
// provider is cooling down, and otherwise asks the wrapped provider.
func (c *CachedProvider) FetchQuote(ctx context.Context, symbol string) (Outcome, error) {
	if c.ttl > 0 {
		if q, found := c.cache.Get(quoteCacheKey(symbol)); found {
			return Found{Quote: q.(Quote)}, nil
		}
	}
	if note, expiresAt, found := c.cache.GetWithExpiration(rateLimitedKey); found {
		return RateLimited{Message: note.(string), RetryAfter: max(time.Until(expiresAt), 0)}, nil
	}

	outcome, err := c.provider.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	switch o := outcome.(type) {
	case Found:
		if c.ttl > 0 {
			c.cache.Set(quoteCacheKey(symbol), o.Quote, c.ttl)
		}
	case RateLimited:
		if c.cooldown > 0 {
			c.cache.Set(rateLimitedKey, o.Message, c.cooldown)
			if o.RetryAfter <= 0 {
				o.RetryAfter = c.cooldown
				outcome = o
			}
		}
	}
	return outcome, nil
}

func quoteCacheKey(symbol string) string {
	return "quote:" + symbol
}
