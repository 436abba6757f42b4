package rates

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/etnz/fxhub"
	"github.com/etnz/fxhub/provider"
	"golang.org/x/sync/singleflight"
)

// Store is where the updater persists the quotes it collects.
type Store interface {
	AppendHistory(quotes []fxhub.Quote) (int, error)
	CompactToSnapshot(quotes []fxhub.Quote, now time.Time) (fxhub.RateSnapshot, int, error)
}

// Report summarizes an update cycle.
type Report struct {
	Quotes      int            // number of quotes collected
	Merged      int            // number of valid quotes merged into the snapshot
	Appended    int            // number of quotes new to the history
	PerSource   map[string]int // number of quotes per provider
	Failures    []error        // one *fxhub.ProviderError per failed provider
	LastRefresh time.Time      // of the cache after the update
}

// Stale reports whether the update left the rates untouched: no provider
// returned any valid quote.
func (r Report) Stale() bool { return r.Merged == 0 }

// Updater collects quotes from all the providers, records them and refreshes
// the cache.
type Updater struct {
	adapters []provider.Adapter
	store    Store
	cache    *Cache
	metrics  *Metrics
	now      func() time.Time

	group singleflight.Group
}

// NewUpdater returns an updater fetching from adapters, in that order.
func NewUpdater(store Store, cache *Cache, adapters ...provider.Adapter) *Updater {
	return &Updater{adapters: adapters, store: store, cache: cache, now: time.Now}
}

// WithMetrics sets the metrics to record update cycles into.
func (u *Updater) WithMetrics(m *Metrics) *Updater {
	u.metrics = m
	return u
}

// WithClock sets the clock stamping the refreshes.
func (u *Updater) WithClock(now func() time.Time) *Updater {
	u.now = now
	return u
}

// RunUpdate runs one update cycle.
//
// A failing provider contributes no quotes. When no provider returns any quote
// the cache keeps its previous content, and it stays stale. A failure to write
// the store is returned and leaves the cache untouched.
func (u *Updater) RunUpdate(ctx context.Context) (Report, error) {
	report := Report{PerSource: make(map[string]int)}
	var quotes []fxhub.Quote
	for _, a := range u.adapters {
		start := time.Now()
		qs, err := a.Fetch(ctx)
		if err != nil {
			u.metrics.failed(a.Name(), time.Since(start))
			err = &fxhub.ProviderError{Source: a.Name(), Err: err}
			log.Printf("warning %v", err)
			report.Failures = append(report.Failures, err)
			continue
		}
		u.metrics.fetched(a.Name(), len(qs), time.Since(start))
		report.PerSource[a.Name()] += len(qs)
		quotes = append(quotes, qs...)
	}
	report.Quotes = len(quotes)

	appended, err := u.store.AppendHistory(quotes)
	if err != nil {
		return report, err
	}
	report.Appended = appended

	snap, merged, err := u.store.CompactToSnapshot(quotes, u.now())
	if err != nil {
		return report, err
	}
	report.Merged = merged
	if merged > 0 {
		u.cache.Replace(snap)
		u.metrics.refreshed(snap.LastRefresh)
	}
	report.LastRefresh = u.cache.LastRefresh()
	log.Printf("update-rates quotes=%d merged=%d appended=%d sources=%v", report.Quotes, report.Merged, report.Appended, report.PerSource)
	return report, nil
}

// Refresh runs an update cycle, sharing it with concurrent callers.
func (u *Updater) Refresh(ctx context.Context) error {
	_, err, _ := u.group.Do("refresh", func() (any, error) {
		report, err := u.RunUpdate(ctx)
		if err != nil {
			return nil, err
		}
		if report.Stale() && len(report.Failures) > 0 {
			return nil, errors.Join(report.Failures...)
		}
		return nil, nil
	})
	return err
}
