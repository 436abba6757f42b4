package ratestore

import (
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/etnz/fxhub"
	"github.com/etnz/fxhub/jsonfile"
)

// Record is a quote as persisted in the history file.
type Record struct {
	ID        string          `json:"id"`
	From      string          `json:"from_currency"`
	To        string          `json:"to_currency"`
	Rate      jsonfile.Number `json:"rate"`
	Timestamp time.Time       `json:"timestamp"`
	Source    string          `json:"source"`
	Meta      fxhub.QuoteMeta `json:"meta"`
}

func newRecord(q fxhub.Quote) Record {
	return Record{
		ID:        RecordID(q.From, q.To, q.Timestamp),
		From:      q.From,
		To:        q.To,
		Rate:      jsonfile.N(q.Rate),
		Timestamp: q.Timestamp,
		Source:    q.Source,
		Meta:      q.Meta,
	}
}

// Quote returns the record as a quote.
func (r Record) Quote() fxhub.Quote {
	return fxhub.Quote{From: r.From, To: r.To, Rate: r.Rate.Decimal, Timestamp: r.Timestamp, Source: r.Source, Meta: r.Meta}
}

// LoadHistory returns all records of the history file, oldest first. A missing
// file is an empty history.
func (s *Store) LoadHistory() ([]Record, error) {
	var records []Record
	if err := jsonfile.Read(s.historyFile, &records); err != nil {
		if isNotExist(err) {
			return []Record{}, nil
		}
		return nil, &fxhub.PersistenceError{Op: "load", Path: s.historyFile, Err: err}
	}
	return records, nil
}

// AppendHistory validates the quotes and appends them to the history file.
// Malformed quotes, and quotes whose id is already in the history, are
// skipped. It returns the number of records appended.
func (s *Store) AppendHistory(quotes []fxhub.Quote) (int, error) {
	valid := validQuotes(quotes)
	if len(valid) == 0 {
		return 0, nil
	}
	records, err := s.LoadHistory()
	if err != nil {
		// Rewriting an unreadable history would lose it.
		return 0, err
	}
	known := make(map[string]struct{}, len(records))
	for _, r := range records {
		known[r.ID] = struct{}{}
	}
	appended := 0
	for _, q := range valid {
		r := newRecord(q)
		if _, exists := known[r.ID]; exists {
			log.Printf("skip-duplicate-quote id=%s from=%s source=%s", r.ID, r.From, r.Source)
			continue
		}
		known[r.ID] = struct{}{}
		records = append(records, r)
		appended++
	}
	if appended == 0 {
		return 0, nil
	}
	if err := s.Writer.Write(s.historyFile, records); err != nil {
		return 0, &fxhub.PersistenceError{Op: "save", Path: s.historyFile, Err: err}
	}
	log.Printf("append-history file=%q records=%d total=%d", s.historyFile, appended, len(records))
	return appended, nil
}

// History returns the records of code, most recent last. An empty code returns all records.
func (s *Store) History(code string) ([]Record, error) {
	records, err := s.LoadHistory()
	if err != nil {
		return nil, err
	}
	if code == "" {
		return records, nil
	}
	c, err := fxhub.NormalizeCode(code)
	if err != nil {
		return nil, fmt.Errorf("cannot filter history: %w", err)
	}
	filtered := make([]Record, 0, len(records))
	for _, r := range records {
		if r.From == c {
			filtered = append(filtered, r)
		}
	}
	slices.SortStableFunc(filtered, func(a, b Record) int { return a.Timestamp.Compare(b.Timestamp) })
	return filtered, nil
}
