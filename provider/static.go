package provider

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/etnz/fxhub"
	"github.com/shopspring/decimal"
)

// Static is an adapter serving a fixed table of rates, already expressed in
// the base currency. It never fails.
type Static struct {
	Source string
	Base   string
	Rates  map[string]decimal.Decimal
	Now    func() time.Time
}

// NewStatic returns a static adapter named source.
func NewStatic(source, base string, rates map[string]decimal.Decimal) *Static {
	return &Static{Source: source, Base: upper(base), Rates: rates, Now: time.Now}
}

func (s *Static) Name() string { return s.Source }

// Fetch implements Adapter.
func (s *Static) Fetch(ctx context.Context) ([]fxhub.Quote, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	quotes := make([]fxhub.Quote, 0, len(s.Rates))
	for _, code := range slices.Sorted(maps.Keys(s.Rates)) {
		quotes = append(quotes, fxhub.Quote{
			From:      upper(code),
			To:        s.Base,
			Rate:      s.Rates[code],
			Timestamp: now,
			Source:    s.Source,
			Meta:      fxhub.QuoteMeta{RawID: code, StatusCode: 200, ETag: "static"},
		})
	}
	return quotes, nil
}
