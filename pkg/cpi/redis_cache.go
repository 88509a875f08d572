package cpi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedProvider memoizes CPI lookups in Redis. Fallback results are cached
// with a short TTL so a recovered upstream is retried promptly; real results
// keep the full TTL (CPI series update monthly).
type CachedProvider struct {
	next        Provider
	client      *redis.Client
	ttl         time.Duration
	fallbackTTL time.Duration
}

// NewCachedProvider wraps next with a Redis cache.
func NewCachedProvider(next Provider, client *redis.Client) *CachedProvider {
	return &CachedProvider{
		next:        next,
		client:      client,
		ttl:         12 * time.Hour,
		fallbackTTL: 5 * time.Minute,
	}
}

func cacheKey(region string) string {
	return fmt.Sprintf("cpi:annual_change:%s", region)
}

// GetAnnualCPIChange implements Provider. Cache errors are ignored; the
// wrapped provider is the source of truth.
func (p *CachedProvider) GetAnnualCPIChange(ctx context.Context, region string) (Result, error) {
	key := cacheKey(region)

	if raw, err := p.client.Get(ctx, key).Bytes(); err == nil {
		var cached Result
		if json.Unmarshal(raw, &cached) == nil {
			return cached, nil
		}
	}

	res, err := p.next.GetAnnualCPIChange(ctx, region)
	if err != nil {
		return res, err
	}

	ttl := p.ttl
	if res.IsFallback {
		ttl = p.fallbackTTL
	}
	if raw, err := json.Marshal(res); err == nil {
		p.client.Set(ctx, key, raw, ttl)
	}
	return res, nil
}
