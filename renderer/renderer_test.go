package renderer

import (
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/etnz/fxhub"
	"github.com/etnz/fxhub/rates"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

//go:embed testdata/*.json testdata/*.md
var testdataFS embed.FS

var fixGoldens = flag.Bool("fix-goldens", false, "if true, update failing golden .md files with the received output")

func TestFixGoldensIsOff(t *testing.T) {
	if *fixGoldens {
		t.Fatal("-fix-goldens is enabled. This flag should only be used for updating test fixtures and must be disabled for regular tests.")
	}
}

// golden renders the view decoded from testdata/<name>.json and
// compares it with testdata/<name>.md.
func golden[T any](t *testing.T, name string, render func(*T) string) {
	t.Helper()
	data, err := testdataFS.ReadFile("testdata/" + name + ".json")
	if err != nil {
		t.Fatalf("failed to read struct file: %v", err)
	}
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("failed to unmarshal %s.json: %v", name, err)
	}
	got := render(v)

	want, err := testdataFS.ReadFile("testdata/" + name + ".md")
	if err != nil && !*fixGoldens {
		t.Fatalf("failed to read golden file: %v", err)
	}
	if got == string(want) {
		return
	}
	if *fixGoldens {
		path := filepath.Join("testdata", name+".md")
		if err := os.WriteFile(path, []byte(got), 0644); err != nil {
			t.Fatalf("failed to write golden file %q: %v", path, err)
		}
		t.Logf("updated golden file %s", path)
		return
	}
	t.Errorf("output mismatch for %s:\n--- want\n+++ got\n%s", name, createDiff(string(want), got))
}

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T, name string)
	}{
		{"portfolio", func(t *testing.T, n string) { golden(t, n, RenderPortfolio) }},
		{"portfolio_empty", func(t *testing.T, n string) { golden(t, n, RenderPortfolio) }},
		{"trade", func(t *testing.T, n string) { golden(t, n, RenderTrade) }},
		{"rate", func(t *testing.T, n string) { golden(t, n, RenderRate) }},
		{"history", func(t *testing.T, n string) { golden(t, n, RenderHistory) }},
		{"history_empty", func(t *testing.T, n string) { golden(t, n, RenderHistory) }},
		{"currencies", func(t *testing.T, n string) { golden(t, n, RenderCurrencies) }},
		{"update", func(t *testing.T, n string) { golden(t, n, RenderUpdate) }},
		{"update_stale", func(t *testing.T, n string) { golden(t, n, RenderUpdate) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { tt.run(t, tt.name) })
	}
}

func currency(t *testing.T, code string) fxhub.Currency {
	t.Helper()
	c, err := fxhub.DefaultRegistry().Resolve(code)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewTrade(t *testing.T) {
	btc, usd := currency(t, "BTC"), currency(t, "USD")
	trade := fxhub.Trade{
		Side:           "sell",
		Currency:       btc,
		Base:           usd,
		Amount:         decimal.RequireFromString("0.004"),
		Rate:           decimal.NewFromInt(50000),
		Cost:           decimal.NewFromInt(200),
		CurrencyBefore: decimal.RequireFromString("0.01"),
		CurrencyAfter:  decimal.RequireFromString("0.006"),
		BaseBefore:     decimal.NewFromInt(500),
		BaseAfter:      decimal.NewFromInt(700),
	}
	want := &Trade{
		Title:          "Sell BTC",
		Verb:           "Sold",
		Code:           "BTC",
		Base:           "USD",
		Amount:         "0.00400000 BTC",
		Rate:           "50000.0000 USD/BTC",
		Cost:           "$200.00",
		CurrencyBefore: "0.01000000 BTC",
		CurrencyAfter:  "0.00600000 BTC",
		BaseBefore:     "$500.00",
		BaseAfter:      "$700.00",
	}
	if diff := cmp.Diff(want, NewTrade(trade)); diff != "" {
		t.Errorf("NewTrade() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewPortfolio(t *testing.T) {
	usd := currency(t, "USD")
	v := fxhub.Valuation{
		Base: usd,
		Lines: []fxhub.ValuationLine{
			{Currency: currency(t, "BTC"), Balance: decimal.RequireFromString("0.01"), Rate: decimal.NewFromInt(50000), Value: decimal.NewFromInt(500)},
			{Currency: usd, Balance: decimal.NewFromInt(500), Rate: decimal.NewFromInt(1), Value: decimal.NewFromInt(500)},
		},
		Total:   decimal.NewFromInt(1000),
		Missing: []string{"ETH", "SOL"},
	}
	got := NewPortfolio("alice", v, time.Date(2025, time.January, 2, 10, 0, 0, 0, time.UTC))
	want := &Portfolio{
		Username:  "alice",
		Base:      "USD",
		UpdatedAt: "2025-01-02 10:00:00 UTC",
		Wallets: []PortfolioWallet{
			{Code: "BTC", Balance: "0.01000000 BTC", Rate: "50000.0000", Value: "$500.00"},
			{Code: "USD", Balance: "$500.00", Rate: "1.0000", Value: "$500.00"},
		},
		Total:   "$1,000.00",
		Missing: "ETH, SOL",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NewPortfolio() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewUpdate(t *testing.T) {
	r := rates.Report{
		Quotes:    3,
		Appended:  3,
		PerSource: map[string]int{"Static": 1, "CoinGecko": 2},
		Failures:  []error{&fxhub.ProviderError{Source: "ExchangeRate-API", Err: errors.New("down")}},
	}
	want := &Update{
		Quotes:    3,
		Appended:  3,
		Sources:   []UpdateSource{{"CoinGecko", 2}, {"Static", 1}},
		Failures:  []string{"provider ExchangeRate-API: down"},
		UpdatedAt: "never",
	}
	if diff := cmp.Diff(want, NewUpdate(r)); diff != "" {
		t.Errorf("NewUpdate() mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		rate string
		want string
	}{
		{"50000", "50000.0000"},
		{"1", "1.0000"},
		{"0.000022", "0.00002200"},
		{"45454.545454545", "45454.5455"},
	}
	for _, tt := range tests {
		if got := formatRate(decimal.RequireFromString(tt.rate)); got != tt.want {
			t.Errorf("formatRate(%s) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}

func createDiff(want, got string) string {
	// A simple diff-like representation for clearer test failures.
	return fmt.Sprintf("-%s\n+%s", strings.ReplaceAll(want, "\n", "\n-"), strings.ReplaceAll(got, "\n", "\n+"))
}
