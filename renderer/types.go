package renderer

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/etnz/fxhub"
	"github.com/etnz/fxhub/rates"
	"github.com/shopspring/decimal"
)

// timeLayout is used for all instants, in UTC.
const timeLayout = "2006-01-02 15:04:05 UTC"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(timeLayout)
}

// formatRate shows a rate with enough digits for small crypto prices.
func formatRate(r decimal.Decimal) string {
	if r.Abs().LessThan(decimal.NewFromInt(1)) {
		return r.StringFixed(8)
	}
	return r.StringFixed(4)
}

// Portfolio is the view of a valuation. All amounts are preformatted.
type Portfolio struct {
	Username  string
	Base      string
	UpdatedAt string
	Wallets   []PortfolioWallet
	Total     string
	Missing   string
}

// PortfolioWallet is a line of a Portfolio.
type PortfolioWallet struct {
	Code    string
	Balance string
	Rate    string
	Value   string
}

// NewPortfolio returns the view of v.
func NewPortfolio(username string, v fxhub.Valuation, updatedAt time.Time) *Portfolio {
	p := &Portfolio{
		Username:  username,
		Base:      v.Base.Code,
		UpdatedAt: formatTime(updatedAt),
		Total:     v.Base.Format(v.Total),
		Missing:   strings.Join(v.Missing, ", "),
	}
	for _, l := range v.Lines {
		p.Wallets = append(p.Wallets, PortfolioWallet{
			Code:    l.Currency.Code,
			Balance: l.Currency.Format(l.Balance),
			Rate:    formatRate(l.Rate),
			Value:   v.Base.Format(l.Value),
		})
	}
	return p
}

// Trade is the view of a buy or a sell.
type Trade struct {
	Title, Verb                   string
	Code, Base                    string
	Amount, Rate, Cost            string
	CurrencyBefore, CurrencyAfter string
	BaseBefore, BaseAfter         string
}

// NewTrade returns the view of t.
func NewTrade(t fxhub.Trade) *Trade {
	v := &Trade{
		Code:           t.Currency.Code,
		Base:           t.Base.Code,
		Amount:         t.Currency.Format(t.Amount),
		Rate:           fmt.Sprintf("%s %s/%s", formatRate(t.Rate), t.Base.Code, t.Currency.Code),
		Cost:           t.Base.Format(t.Cost),
		CurrencyBefore: t.Currency.Format(t.CurrencyBefore),
		CurrencyAfter:  t.Currency.Format(t.CurrencyAfter),
		BaseBefore:     t.Base.Format(t.BaseBefore),
		BaseAfter:      t.Base.Format(t.BaseAfter),
	}
	if t.Side == "sell" {
		v.Title, v.Verb = "Sell "+t.Currency.Code, "Sold"
	} else {
		v.Title, v.Verb = "Buy "+t.Currency.Code, "Bought"
	}
	return v
}

// Rate is the view of an exchange rate.
type Rate struct {
	From, To      string
	Rate, Reverse string
	UpdatedAt     string
}

// NewRate returns the view of r.
func NewRate(r fxhub.Rate) *Rate {
	return &Rate{
		From:      r.From.Code,
		To:        r.To.Code,
		Rate:      formatRate(r.Rate),
		Reverse:   formatRate(r.Reverse),
		UpdatedAt: formatTime(r.UpdatedAt),
	}
}

// History is the view of the recorded quotes of a currency.
type History struct {
	Code    string
	Entries []HistoryEntry
}

// HistoryEntry is a line of a History.
type HistoryEntry struct {
	Date, Rate, Source string
}

// NewHistory returns the view of the quotes of code, in the given order.
func NewHistory(code string, quotes []fxhub.Quote) *History {
	h := &History{Code: code}
	for _, q := range quotes {
		h.Entries = append(h.Entries, HistoryEntry{
			Date:   formatTime(q.Timestamp),
			Rate:   fmt.Sprintf("%s %s", formatRate(q.Rate), q.To),
			Source: q.Source,
		})
	}
	return h
}

// Currencies is the view of the registry.
type Currencies struct {
	Lines []string
}

// NewCurrencies returns the view of the currencies.
func NewCurrencies(currencies []fxhub.Currency) *Currencies {
	c := &Currencies{}
	for _, cur := range currencies {
		c.Lines = append(c.Lines, cur.DisplayInfo())
	}
	return c
}

// Update is the view of a rates update.
type Update struct {
	Stale     bool
	Quotes    int
	Appended  int
	Sources   []UpdateSource
	Failures  []string
	UpdatedAt string
}

// UpdateSource is the number of quotes received from a provider.
type UpdateSource struct {
	Name   string
	Quotes int
}

// NewUpdate returns the view of r.
func NewUpdate(r rates.Report) *Update {
	u := &Update{
		Stale:     r.Stale(),
		Quotes:    r.Quotes,
		Appended:  r.Appended,
		UpdatedAt: formatTime(r.LastRefresh),
	}
	for _, name := range slices.Sorted(maps.Keys(r.PerSource)) {
		u.Sources = append(u.Sources, UpdateSource{Name: name, Quotes: r.PerSource[name]})
	}
	for _, err := range r.Failures {
		u.Failures = append(u.Failures, err.Error())
	}
	return u
}
