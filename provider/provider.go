// Package provider fetches exchange rates quotes from external data sources.
//
// Every adapter reports quotes in the same direction: the value of one unit
// of a currency expressed in the base currency. Providers that publish the
// opposite direction are inverted here.
//
// Adapters contain their own transient failures (network errors, timeouts,
// non success statuses, unreadable replies): they log the reason and return no
// quotes. Only a successful reply with an unexpected schema is reported as an
// error, wrapping ErrSchema.
package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/etnz/fxhub"
)

// ErrSchema is returned when a provider replied successfully with a content
// that does not match the expected schema.
var ErrSchema = errors.New("unexpected reply schema")

// DefaultTimeout is the request timeout used when none is configured.
const DefaultTimeout = 10 * time.Second

// Adapter is a source of exchange rates.
type Adapter interface {
	// Name identifies the source, it is recorded in every quote.
	Name() string
	// Fetch performs a single request and returns the quotes it got.
	Fetch(ctx context.Context) ([]fxhub.Quote, error)
}

// Known is the set of currencies an adapter may report.
type Known interface {
	Has(code string) bool
}

// all accepts every code.
type all struct{}

func (all) Has(string) bool { return true }

// knownOrAll returns k, or a set accepting every code when k is nil.
func knownOrAll(k Known) Known {
	if k == nil {
		return all{}
	}
	return k
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}

func upper(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
