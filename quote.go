package fxhub

import (
	"maps"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteMeta describes how a quote was obtained from its provider.
type QuoteMeta struct {
	RawID      string `json:"raw_id,omitempty"` // provider's own identifier of the currency
	RequestMS  int64  `json:"request_ms"`
	StatusCode int    `json:"status_code"`
	ETag       string `json:"etag"` // cache validator: the ETag header or a hash of the body
}

// Quote is one provider's observation of the rate of From expressed in To, at
// a given instant. Quotes are never mutated.
//
// All providers report quotes in the direction CODE -> base currency: Rate is
// the value of one unit of From in units of To.
type Quote struct {
	From      string
	To        string
	Rate      decimal.Decimal
	Timestamp time.Time
	Source    string
	Meta      QuoteMeta
}

// SnapshotEntry is the best known rate of a currency against the base currency.
type SnapshotEntry struct {
	Rate      decimal.Decimal
	UpdatedAt time.Time
	Source    string
}

// RateSnapshot is the compacted view of the quote history: the latest rate per
// currency code, all expressed against the base currency.
//
// Cross rates are derived: the rate of X in Y is Pairs[X].Rate/Pairs[Y].Rate.
type RateSnapshot struct {
	Pairs       map[string]SnapshotEntry
	LastRefresh time.Time
}

// NewRateSnapshot returns an empty snapshot.
func NewRateSnapshot() RateSnapshot {
	return RateSnapshot{Pairs: make(map[string]SnapshotEntry)}
}

// Clone returns a deep copy of s.
func (s RateSnapshot) Clone() RateSnapshot {
	c := RateSnapshot{LastRefresh: s.LastRefresh, Pairs: make(map[string]SnapshotEntry, len(s.Pairs))}
	maps.Copy(c.Pairs, s.Pairs)
	return c
}

// Merge applies q to the snapshot if it is more recent than the entry already
// known for q.From. It reports whether the snapshot changed. On equal instants
// the existing entry is kept.
func (s *RateSnapshot) Merge(q Quote) bool {
	if s.Pairs == nil {
		s.Pairs = make(map[string]SnapshotEntry)
	}
	old, exists := s.Pairs[q.From]
	if exists && !q.Timestamp.After(old.UpdatedAt) {
		return false
	}
	s.Pairs[q.From] = SnapshotEntry{Rate: q.Rate, UpdatedAt: q.Timestamp, Source: q.Source}
	return true
}
