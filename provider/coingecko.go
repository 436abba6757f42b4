package provider

import (
	"context"
	"fmt"
	"log"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/fxhub"
	"github.com/shopspring/decimal"
)

// CoinGeckoURL is the default simple price endpoint.
const CoinGeckoURL = "https://api.coingecko.com/api/v3/simple/price"

// DefaultCryptoIDs maps currency codes to CoinGecko coin ids.
var DefaultCryptoIDs = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
	"SOL": "solana",
}

// CoinGecko fetches crypto currency prices.
//
// The simple price endpoint replies with the price of each coin in the base
// currency, which is already the direction of quotes:
//
//	{"bitcoin":{"usd":59337.12},"ethereum":{"usd":3720.5}}
type CoinGecko struct {
	URL     string
	Base    string
	IDs     map[string]string // currency code -> coin id
	Timeout time.Duration
	Client  *http.Client
	Known   Known

	now func() time.Time
}

// NewCoinGecko returns a CoinGecko adapter. A nil ids uses DefaultCryptoIDs.
func NewCoinGecko(addr, base string, ids map[string]string, timeout time.Duration, known Known) *CoinGecko {
	if addr == "" {
		addr = CoinGeckoURL
	}
	if len(ids) == 0 {
		ids = DefaultCryptoIDs
	}
	return &CoinGecko{URL: addr, Base: upper(base), IDs: ids, Timeout: timeout, Client: new(http.Client), Known: known, now: time.Now}
}

func (c *CoinGecko) Name() string { return "CoinGecko" }

// codes returns the known codes to fetch, sorted.
func (c *CoinGecko) codes() []string {
	known := knownOrAll(c.Known)
	var codes []string
	for _, code := range slices.Sorted(maps.Keys(c.IDs)) {
		if known.Has(code) {
			codes = append(codes, upper(code))
		}
	}
	return codes
}

// Fetch implements Adapter.
func (c *CoinGecko) Fetch(ctx context.Context) ([]fxhub.Quote, error) {
	codes := c.codes()
	if len(codes) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(codes))
	for _, code := range codes {
		ids = append(ids, c.IDs[code])
	}
	vs := strings.ToLower(c.Base)
	params := url.Values{
		"ids":           {strings.Join(ids, ",")},
		"vs_currencies": {vs},
	}
	addr := c.URL + "?" + params.Encode()

	r, err := wget(ctx, c.Client, addr, c.Timeout)
	if err != nil {
		log.Printf("warning %s request failed: %v", c.Name(), err)
		return nil, nil
	}
	if !r.OK() {
		log.Printf("warning %s replied with status %d", c.Name(), r.status)
		return nil, nil
	}
	jobj, err := r.decode()
	if err != nil {
		log.Printf("warning %s reply is not json: %v", c.Name(), err)
		return nil, nil
	}
	top, ok := jobj.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: %w: top level is %T, not an object", c.Name(), ErrSchema, jobj)
	}

	now := c.now()
	quotes := make([]fxhub.Quote, 0, len(codes))
	for _, code := range codes {
		id := c.IDs[code]
		if _, exists := top[id]; !exists {
			log.Printf("warning %s has no data for %q", c.Name(), id)
			continue
		}
		path := fmt.Sprintf("$[%q][%q]", id, vs)
		jval, err := jsonpath.Get(path, jobj)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %s: %v", c.Name(), ErrSchema, path, err)
		}
		price, ok := jval.(float64)
		if !ok || price < 0 {
			return nil, fmt.Errorf("%s: %w: %s is %v, not a price", c.Name(), ErrSchema, path, jval)
		}
		quotes = append(quotes, fxhub.Quote{
			From:      code,
			To:        c.Base,
			Rate:      decimal.NewFromFloat(price),
			Timestamp: now,
			Source:    c.Name(),
			Meta:      r.meta(id),
		})
	}
	return quotes, nil
}
