// Package rates keeps the in-memory view of exchange rates and refreshes it
// from the providers.
package rates

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/etnz/fxhub"
	"github.com/shopspring/decimal"
)

// Cache is the process-wide view of the rate snapshot.
//
// The snapshot is loaded lazily on first use. Readers always see a complete
// snapshot: Replace swaps the whole value at once.
type Cache struct {
	base   string
	loader func() fxhub.RateSnapshot
	now    func() time.Time

	once sync.Once
	snap atomic.Pointer[fxhub.RateSnapshot]
}

// NewCache returns a cache loading its initial snapshot with loader. Rates are
// expressed in base.
func NewCache(loader func() fxhub.RateSnapshot, base string) *Cache {
	return &Cache{base: base, loader: loader, now: time.Now}
}

// WithClock sets the clock used to evaluate freshness.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Base returns the code all the rates are expressed in.
func (c *Cache) Base() string { return c.base }

func (c *Cache) load() *fxhub.RateSnapshot {
	c.once.Do(func() {
		snap := fxhub.NewRateSnapshot()
		if c.loader != nil {
			snap = c.loader()
		}
		c.snap.Store(&snap)
	})
	return c.snap.Load()
}

// Snapshot returns a copy of the current snapshot.
func (c *Cache) Snapshot() fxhub.RateSnapshot { return c.load().Clone() }

// RateOf returns the value of one unit of code in the base currency.
//
// The base currency is always worth 1, even when the snapshot has no entry for
// it. It fails with *fxhub.CurrencyNotFoundError when code has no rate.
func (c *Cache) RateOf(code string) (decimal.Decimal, error) {
	if e, ok := c.load().Pairs[code]; ok {
		return e.Rate, nil
	}
	if code == c.base {
		return decimal.NewFromInt(1), nil
	}
	return decimal.Zero, &fxhub.CurrencyNotFoundError{Code: code}
}

// LastRefresh returns the instant of the last successful refresh, the zero
// time if there was never one.
func (c *Cache) LastRefresh() time.Time { return c.load().LastRefresh }

// IsFresh reports whether the last refresh is less than ttl old. A cache never
// refreshed is stale.
func (c *Cache) IsFresh(ttl time.Duration) bool {
	last := c.LastRefresh()
	if last.IsZero() {
		return false
	}
	return c.now().Sub(last) < ttl
}

// Replace atomically swaps the snapshot.
func (c *Cache) Replace(snap fxhub.RateSnapshot) {
	c.once.Do(func() {}) // the loaded value would be stale anyway.
	snap = snap.Clone()
	c.snap.Store(&snap)
}
