package provider

import (
	"context"
	"fmt"
	"log"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/fxhub"
	"github.com/shopspring/decimal"
)

// ExchangeRateURL is the default ExchangeRate-API v6 endpoint.
const ExchangeRateURL = "https://v6.exchangerate-api.com/v6"

// ExchangeRateAPI fetches fiat currency rates from exchangerate-api.com.
//
// The latest endpoint replies with the value of one unit of the base currency
// in every other currency:
//
//	{"result":"success","base_code":"USD","conversion_rates":{"USD":1,"EUR":0.9013}}
//
// Rates are inverted so that each quote reads CODE -> base currency.
type ExchangeRateAPI struct {
	URL     string
	APIKey  string
	Base    string
	Timeout time.Duration
	Client  *http.Client
	Known   Known

	now func() time.Time
}

// NewExchangeRateAPI returns an ExchangeRate-API adapter.
func NewExchangeRateAPI(addr, apiKey, base string, timeout time.Duration, known Known) *ExchangeRateAPI {
	if addr == "" {
		addr = ExchangeRateURL
	}
	return &ExchangeRateAPI{URL: addr, APIKey: apiKey, Base: upper(base), Timeout: timeout, Client: new(http.Client), Known: known, now: time.Now}
}

func (e *ExchangeRateAPI) Name() string { return "ExchangeRate-API" }

// Fetch implements Adapter.
func (e *ExchangeRateAPI) Fetch(ctx context.Context) ([]fxhub.Quote, error) {
	if e.APIKey == "" {
		log.Printf("warning %s api key is not set, skipping", e.Name())
		return nil, nil
	}
	addr := fmt.Sprintf("%s/%s/latest/%s", strings.TrimRight(e.URL, "/"), e.APIKey, e.Base)

	r, err := wget(ctx, e.Client, addr, e.Timeout)
	if err != nil {
		// the error contains the url, hence the key.
		log.Printf("warning %s request failed: %v", e.Name(), strings.ReplaceAll(err.Error(), e.APIKey, "***"))
		return nil, nil
	}
	if !r.OK() {
		log.Printf("warning %s replied with status %d", e.Name(), r.status)
		return nil, nil
	}
	jobj, err := r.decode()
	if err != nil {
		log.Printf("warning %s reply is not json: %v", e.Name(), err)
		return nil, nil
	}
	if result, _ := jsonpath.Get("$.result", jobj); result != "success" {
		errorType, _ := jsonpath.Get("$[\"error-type\"]", jobj)
		log.Printf("warning %s result=%v error-type=%v", e.Name(), result, errorType)
		return nil, nil
	}

	jrates, err := jsonpath.Get("$.conversion_rates", jobj)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", e.Name(), ErrSchema, err)
	}
	rates, ok := jrates.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: %w: conversion_rates is %T, not an object", e.Name(), ErrSchema, jrates)
	}

	known := knownOrAll(e.Known)
	now := e.now()
	one := decimal.NewFromInt(1)
	quotes := make([]fxhub.Quote, 0, len(rates))
	for _, code := range slices.Sorted(maps.Keys(rates)) {
		value, ok := rates[code].(float64)
		if !ok || value < 0 {
			return nil, fmt.Errorf("%s: %w: rate of %q is %v, not a number", e.Name(), ErrSchema, code, rates[code])
		}
		if !known.Has(code) {
			continue
		}
		if value == 0 {
			log.Printf("warning %s zero rate for %s cannot be inverted", e.Name(), code)
			continue
		}
		quotes = append(quotes, fxhub.Quote{
			From:      upper(code),
			To:        e.Base,
			Rate:      one.Div(decimal.NewFromFloat(value)),
			Timestamp: now,
			Source:    e.Name(),
			Meta:      r.meta(code),
		})
	}
	return quotes, nil
}
