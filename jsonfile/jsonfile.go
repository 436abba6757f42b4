// Package jsonfile reads and writes human readable JSON files.
//
// Writes are atomic: the content is written to a temporary file in the same
// folder, synced, then renamed over the target. Until the rename succeeds the
// previous file is left untouched, and the temporary file is removed on every
// failure.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
)

// Writer writes JSON files atomically. Its zero value is ready to use.
type Writer struct {
	// Perm is the permission of the written files, 0644 if zero.
	Perm os.FileMode

	// BeforeRename, if set, is called with the temporary file name once it is
	// fully written and closed. Returning an error aborts the write.
	BeforeRename func(tmp string) error
}

// Write marshals v as indented JSON into path using the zero Writer.
func Write(path string, v any) error {
	var w Writer
	return w.Write(path, v)
}

// Write marshals v as indented JSON and atomically replaces path with it.
func (w Writer) Write(path string, v any) (err error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("cannot encode %q: %w", path, err)
	}
	return w.WriteBytes(path, buf.Bytes())
}

// WriteBytes atomically replaces path with data.
func (w Writer) WriteBytes(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create folder %q: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create temporary file for %q: %w", path, err)
	}
	tmp := f.Name()
	closed := false
	defer func() {
		if err == nil {
			return
		}
		if !closed {
			f.Close()
		}
		os.Remove(tmp)
	}()

	perm := w.Perm
	if perm == 0 {
		perm = 0o644
	}
	if err = f.Chmod(perm); err != nil {
		return fmt.Errorf("cannot set permissions on %q: %w", tmp, err)
	}
	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("cannot write %q: %w", tmp, err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("cannot sync %q: %w", tmp, err)
	}
	closed = true
	if err = f.Close(); err != nil {
		return fmt.Errorf("cannot close %q: %w", tmp, err)
	}
	if w.BeforeRename != nil {
		if err = w.BeforeRename(tmp); err != nil {
			return err
		}
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("cannot replace %q: %w", path, err)
	}
	return nil
}

// Read unmarshals the JSON content of path into v. A missing file returns an
// error matching fs.ErrNotExist.
func Read(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("format error in %q: %w", path, err)
	}
	return nil
}

// Number is a decimal persisted as a bare JSON number rather than a string.
type Number struct {
	decimal.Decimal
}

// N wraps d into a Number.
func N(d decimal.Decimal) Number { return Number{d} }

// MarshalJSON implements the json.Marshaler interface.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.Decimal.String()), nil
}
