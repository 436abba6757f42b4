package ratestore

import (
	"errors"
	"log"
	"time"

	"github.com/etnz/fxhub"
	"github.com/etnz/fxhub/jsonfile"
)

// jentry is a snapshot entry as persisted in the snapshot file.
type jentry struct {
	Rate      *jsonfile.Number `json:"rate"`
	UpdatedAt *time.Time       `json:"updated_at"`
	Source    string           `json:"source"`
}

// jsnapshot is the snapshot file top level object.
type jsnapshot struct {
	Pairs       *map[string]jentry `json:"pairs"`
	LastRefresh *time.Time         `json:"last_refresh"`
}

// LoadSnapshot reads the snapshot file. It never fails: a missing file is an
// empty snapshot, and a malformed file is logged and read as an empty snapshot.
func (s *Store) LoadSnapshot() fxhub.RateSnapshot {
	snap, err := s.readSnapshot()
	if err != nil {
		if !isNotExist(err) {
			log.Printf("warning ignore-snapshot file=%q: %v", s.snapshotFile, err)
		}
		return fxhub.NewRateSnapshot()
	}
	return snap
}

// readSnapshot reads and validates the snapshot file.
func (s *Store) readSnapshot() (fxhub.RateSnapshot, error) {
	var js jsnapshot
	if err := jsonfile.Read(s.snapshotFile, &js); err != nil {
		return fxhub.RateSnapshot{}, err
	}
	if js.Pairs == nil {
		return fxhub.RateSnapshot{}, errors.New("missing key \"pairs\"")
	}
	if js.LastRefresh == nil {
		return fxhub.RateSnapshot{}, errors.New("missing key \"last_refresh\"")
	}
	snap := fxhub.NewRateSnapshot()
	snap.LastRefresh = *js.LastRefresh
	for code, e := range *js.Pairs {
		c, err := fxhub.NormalizeCode(code)
		if err != nil {
			log.Printf("warning skip-snapshot-entry code=%q: %v", code, err)
			continue
		}
		if e.Rate == nil || e.Rate.IsNegative() || e.UpdatedAt == nil {
			log.Printf("warning skip-snapshot-entry code=%q: invalid rate or updated_at", code)
			continue
		}
		snap.Pairs[c] = fxhub.SnapshotEntry{Rate: e.Rate.Decimal, UpdatedAt: *e.UpdatedAt, Source: e.Source}
	}
	return snap, nil
}

// writeSnapshot atomically replaces the snapshot file with snap.
func (s *Store) writeSnapshot(snap fxhub.RateSnapshot) error {
	pairs := make(map[string]jentry, len(snap.Pairs))
	for code, e := range snap.Pairs {
		rate := jsonfile.N(e.Rate)
		updated := e.UpdatedAt
		pairs[code] = jentry{Rate: &rate, UpdatedAt: &updated, Source: e.Source}
	}
	last := snap.LastRefresh
	js := jsnapshot{Pairs: &pairs, LastRefresh: &last}
	if err := s.Writer.Write(s.snapshotFile, js); err != nil {
		return &fxhub.PersistenceError{Op: "save", Path: s.snapshotFile, Err: err}
	}
	return nil
}

// CompactToSnapshot merges the quotes into the snapshot file: for each
// currency only the most recent rate is kept, whatever the order of the
// quotes. The refresh time is set to now. A batch without any valid quote
// leaves the snapshot untouched, including its refresh time.
//
// It returns the resulting snapshot and the number of valid quotes merged.
func (s *Store) CompactToSnapshot(quotes []fxhub.Quote, now time.Time) (fxhub.RateSnapshot, int, error) {
	snap := s.LoadSnapshot()
	valid := validQuotes(quotes)
	if len(valid) == 0 {
		return snap, 0, nil
	}
	changed := 0
	for _, q := range valid {
		if snap.Merge(q) {
			changed++
		}
	}
	snap.LastRefresh = now
	if err := s.writeSnapshot(snap); err != nil {
		return fxhub.RateSnapshot{}, 0, err
	}
	log.Printf("compact-snapshot file=%q pairs=%d changed=%d", s.snapshotFile, len(snap.Pairs), changed)
	return snap, len(valid), nil
}
