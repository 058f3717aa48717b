package models

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// ChartRanges lists the selectable history windows in days.
var ChartRanges = []int{1, 7, 30, 90, 365}

type chartKey struct {
	CoinID string
	Days   int
}

// ChartCache holds fetched price series keyed by (coin, range). Entries
// are immutable once inserted; the whole cache is purged on currency
// change since cached values are denominated in the old currency.
type ChartCache struct {
	entries *lru.Cache[chartKey, []float64]
	loading map[chartKey]bool
}

func NewChartCache() *ChartCache {
	entries, _ := lru.New[chartKey, []float64](64)
	return &ChartCache{
		entries: entries,
		loading: make(map[chartKey]bool),
	}
}

// Get returns the cached series for a pair, if present.
func (c *ChartCache) Get(coinID string, days int) ([]float64, bool) {
	return c.entries.Get(chartKey{coinID, days})
}

// Loading reports whether a fetch for the pair is already in flight, so
// a repeated request while loading is a no-op rather than a second call.
func (c *ChartCache) Loading(coinID string, days int) bool {
	return c.loading[chartKey{coinID, days}]
}

// StartLoading marks a fetch in flight. It returns false when the pair
// is already cached or already loading, meaning no fetch should start.
func (c *ChartCache) StartLoading(coinID string, days int) bool {
	key := chartKey{coinID, days}
	if c.loading[key] {
		return false
	}
	if _, ok := c.entries.Get(key); ok {
		return false
	}
	c.loading[key] = true
	return true
}

// FinishLoading records a fetch result. Failures leave the entry absent
// so revisiting the range retries.
func (c *ChartCache) FinishLoading(coinID string, days int, prices []float64, ok bool) {
	key := chartKey{coinID, days}
	delete(c.loading, key)
	if ok {
		c.entries.Add(key, prices)
	}
}

// Purge drops every entry. In-flight flags stay so duplicate fetches are
// still suppressed; their results land keyed by the requested pair.
func (c *ChartCache) Purge() {
	c.entries.Purge()
}
