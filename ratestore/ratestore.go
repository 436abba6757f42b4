// Package ratestore persists exchange rates quotes.
//
// It keeps two files: the history, an append-only JSON array of every quote
// ever fetched, and the snapshot, the latest rate per currency with the time
// of the last refresh. Both are written atomically with package jsonfile.
package ratestore

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/etnz/fxhub"
	"github.com/etnz/fxhub/jsonfile"
	"github.com/google/uuid"
)

// namespace of the history record ids.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/etnz/fxhub/history"))

// Store reads and writes the history and the snapshot files.
type Store struct {
	historyFile  string
	snapshotFile string

	// Writer is used for every write, it can be configured to simulate failures.
	Writer jsonfile.Writer
}

// New returns a store using the given files.
func New(historyFile, snapshotFile string) *Store {
	return &Store{historyFile: historyFile, snapshotFile: snapshotFile}
}

func (s *Store) HistoryFile() string  { return s.historyFile }
func (s *Store) SnapshotFile() string { return s.snapshotFile }

// RecordID returns the deterministic id of a quote of from in to at ts. Quotes
// within the same second share the same id.
func RecordID(from, to string, ts time.Time) string {
	key := fmt.Sprintf("%s_%s_%s", from, to, ts.UTC().Truncate(time.Second).Format(time.RFC3339))
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

// normalize validates q and returns a copy with uppercase codes.
func normalize(q fxhub.Quote) (fxhub.Quote, error) {
	from := strings.ToUpper(strings.TrimSpace(q.From))
	to := strings.ToUpper(strings.TrimSpace(q.To))
	switch {
	case from == "":
		return q, errors.New("missing from_currency")
	case to == "":
		return q, errors.New("missing to_currency")
	case strings.TrimSpace(q.Source) == "":
		return q, errors.New("missing source")
	case q.Rate.IsNegative():
		return q, fmt.Errorf("negative rate %s", q.Rate)
	case q.Timestamp.IsZero():
		return q, errors.New("missing timestamp")
	}
	if _, err := fxhub.NormalizeCode(from); err != nil {
		return q, err
	}
	if _, err := fxhub.NormalizeCode(to); err != nil {
		return q, err
	}
	q.From, q.To = from, to
	return q, nil
}

// validQuotes returns the valid quotes of the batch, normalized. Invalid ones
// are logged and skipped.
func validQuotes(quotes []fxhub.Quote) []fxhub.Quote {
	valid := make([]fxhub.Quote, 0, len(quotes))
	for i, q := range quotes {
		n, err := normalize(q)
		if err != nil {
			log.Printf("warning skip-quote index=%d from=%q source=%q: %v", i, q.From, q.Source, err)
			continue
		}
		valid = append(valid, n)
	}
	return valid
}

// isNotExist reports whether err is a missing file.
func isNotExist(err error) bool { return errors.Is(err, fs.ErrNotExist) }
