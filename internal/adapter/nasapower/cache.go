package nasapower

import (
	"context"
	"fmt"

	"github.com/couchcryptid/climate-risk-engine/internal/domain"
	"github.com/couchcryptid/climate-risk-engine/internal/lru"
	"github.com/couchcryptid/climate-risk-engine/internal/observability"
)

// CachedProvider wraps a ClimatologyProvider with an in-memory LRU cache.
// Climatologies are multi-decade averages, so entries never expire.
type CachedProvider struct {
	inner   domain.ClimatologyProvider
	cache   *lru.Cache[string, domain.ClimatologySeries]
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a provider.
func NewCachedProvider(inner domain.ClimatologyProvider, maxEntries int, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   lru.New[string, domain.ClimatologySeries](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedProvider) Climatology(ctx context.Context, lat, lon float64) (domain.ClimatologySeries, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if series, ok := c.cache.Get(key); ok {
		c.metrics.ClimatologyCache.WithLabelValues("hit").Inc()
		return series, nil
	}
	c.metrics.ClimatologyCache.WithLabelValues("miss").Inc()

	series, err := c.inner.Climatology(ctx, lat, lon)
	if err != nil {
		return series, err
	}
	// Only cache complete series so months missing upstream can be refetched.
	if series.ValidMonths() == 12 {
		c.cache.Put(key, series)
	}
	return series, nil
}

// Len reports the number of cached coordinates.
func (c *CachedProvider) Len() int {
	return c.cache.Len()
}
