package rates

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/etnz/fxhub"
	"github.com/etnz/fxhub/jsonfile"
	"github.com/etnz/fxhub/provider"
	"github.com/etnz/fxhub/ratestore"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

// fakeAdapter returns fixed quotes, or an error.
type fakeAdapter struct {
	name   string
	quotes []fxhub.Quote
	err    error
	calls  atomic.Int32
	wait   chan struct{}
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Fetch(ctx context.Context) ([]fxhub.Quote, error) {
	f.calls.Add(1)
	if f.wait != nil {
		<-f.wait
	}
	return f.quotes, f.err
}

func quote(code string, rate int64, source string) fxhub.Quote {
	return fxhub.Quote{From: code, To: "USD", Rate: decimal.NewFromInt(rate), Timestamp: t0, Source: source}
}

func newUpdater(t *testing.T, adapters ...provider.Adapter) (*Updater, *ratestore.Store, *Cache) {
	t.Helper()
	dir := t.TempDir()
	store := ratestore.New(filepath.Join(dir, "exchange_rates.json"), filepath.Join(dir, "rates.json"))
	now := func() time.Time { return t0.Add(time.Minute) }
	cache := NewCache(store.LoadSnapshot, "USD").WithClock(now)
	u := NewUpdater(store, cache, adapters...).WithClock(now).WithMetrics(NewMetrics())
	return u, store, cache
}

func TestUpdater_RunUpdate(t *testing.T) {
	crypto := &fakeAdapter{name: "crypto", quotes: []fxhub.Quote{quote("BTC", 50000, "crypto")}}
	broken := &fakeAdapter{name: "broken", err: provider.ErrSchema}
	fiat := &fakeAdapter{name: "fiat", quotes: []fxhub.Quote{quote("EUR", 1, "fiat"), quote("GBP", 1, "fiat")}}
	u, store, cache := newUpdater(t, crypto, broken, fiat)

	report, err := u.RunUpdate(context.Background())
	if err != nil {
		t.Fatalf("RunUpdate() error = %v", err)
	}
	if report.Quotes != 3 || report.Merged != 3 || report.Appended != 3 || report.Stale() {
		t.Errorf("RunUpdate() = %+v, want 3 quotes appended", report)
	}
	if report.PerSource["crypto"] != 1 || report.PerSource["fiat"] != 2 {
		t.Errorf("PerSource = %v", report.PerSource)
	}
	var perr *fxhub.ProviderError
	if len(report.Failures) != 1 || !errors.As(report.Failures[0], &perr) || perr.Source != "broken" {
		t.Errorf("Failures = %v, want one failure of broken", report.Failures)
	}

	if r, err := cache.RateOf("BTC"); err != nil || !r.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("cache RateOf(BTC) = %s, %v, want 50000", r, err)
	}
	if !cache.IsFresh(300 * time.Second) {
		t.Errorf("cache is stale after an update")
	}
	if snap := store.LoadSnapshot(); len(snap.Pairs) != 3 {
		t.Errorf("stored snapshot = %v, want 3 pairs", snap.Pairs)
	}

	m := u.metrics
	if got := testutil.ToFloat64(m.quotes.WithLabelValues("fiat")); got != 2 {
		t.Errorf("quotes{fiat} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("broken")); got != 1 {
		t.Errorf("failures{broken} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.lastRefresh); got != float64(t0.Add(time.Minute).Unix()) {
		t.Errorf("last refresh gauge = %v", got)
	}
}

func TestUpdater_AllProvidersFail(t *testing.T) {
	dir := t.TempDir()
	store := ratestore.New(filepath.Join(dir, "exchange_rates.json"), filepath.Join(dir, "rates.json"))
	if _, _, err := store.CompactToSnapshot([]fxhub.Quote{quote("BTC", 40000, "old")}, t0.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	now := func() time.Time { return t0 }
	cache := NewCache(store.LoadSnapshot, "USD").WithClock(now)
	u := NewUpdater(store, cache, &fakeAdapter{name: "a", err: errors.New("down")}, &fakeAdapter{name: "b"}).WithClock(now)

	report, err := u.RunUpdate(context.Background())
	if err != nil {
		t.Fatalf("RunUpdate() error = %v", err)
	}
	if !report.Stale() {
		t.Errorf("RunUpdate() = %+v, want a stale report", report)
	}
	if r, _ := cache.RateOf("BTC"); !r.Equal(decimal.NewFromInt(40000)) {
		t.Errorf("cache RateOf(BTC) = %s, want the previous 40000", r)
	}
	if cache.IsFresh(300 * time.Second) {
		t.Errorf("cache is fresh after a failed update")
	}
	if !store.LoadSnapshot().LastRefresh.Equal(t0.Add(-time.Hour)) {
		t.Errorf("stored refresh time changed by a failed update")
	}

	if err := u.Refresh(context.Background()); err == nil {
		t.Errorf("Refresh() error = nil, want the provider failure")
	}
}

func TestUpdater_StoreFailureKeepsCache(t *testing.T) {
	u, store, cache := newUpdater(t, &fakeAdapter{name: "a", quotes: []fxhub.Quote{quote("BTC", 50000, "a")}})
	store.Writer = jsonfile.Writer{BeforeRename: func(string) error { return errors.New("disk full") }}

	_, err := u.RunUpdate(context.Background())
	var perr *fxhub.PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("RunUpdate() error = %v, want *PersistenceError", err)
	}
	if _, err := cache.RateOf("BTC"); err == nil {
		t.Errorf("cache updated despite the store failure")
	}
}

func TestUpdater_RefreshIsShared(t *testing.T) {
	a := &fakeAdapter{name: "a", quotes: []fxhub.Quote{quote("BTC", 50000, "a")}, wait: make(chan struct{})}
	u, _, _ := newUpdater(t, a)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := u.Refresh(context.Background()); err != nil {
				t.Errorf("Refresh() error = %v", err)
			}
		}()
	}
	// let the callers pile up on the first fetch.
	time.Sleep(50 * time.Millisecond)
	close(a.wait)
	wg.Wait()

	if n := a.calls.Load(); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}
}

func TestUpdater_MalformedQuotesAreStale(t *testing.T) {
	negative := quote("BTC", -1, "bad")
	anonymous := quote("ETH", 3000, "")
	u, store, cache := newUpdater(t, &fakeAdapter{name: "bad", quotes: []fxhub.Quote{negative, anonymous}})

	report, err := u.RunUpdate(context.Background())
	if err != nil {
		t.Fatalf("RunUpdate() error = %v", err)
	}
	if report.Quotes != 2 || report.Merged != 0 || !report.Stale() {
		t.Errorf("RunUpdate() = %+v, want 2 quotes collected, none merged, stale", report)
	}
	if !cache.LastRefresh().IsZero() {
		t.Errorf("cache refreshed by malformed quotes at %v", cache.LastRefresh())
	}
	if !store.LoadSnapshot().LastRefresh.IsZero() {
		t.Errorf("stored refresh time advanced by malformed quotes")
	}
}
