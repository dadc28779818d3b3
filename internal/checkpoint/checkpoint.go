// Package checkpoint persists per-company scan progress so repeated runs
// only query the unscanned tail of each company's filing list.
package checkpoint

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Store maps company identifier to the last end-date (YYYYMMDD) through
// which that company's filing list was fully scanned. Loaded at run
// start, mutated in memory, flushed atomically at run end.
type Store struct {
	path  string
	dates map[string]string
}

// Load reads the checkpoint file. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	s := &Store{path: path, dates: map[string]string{}}

	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, eris.Wrap(err, "checkpoint: read file")
	}

	if err := json.Unmarshal(b, &s.dates); err != nil {
		return nil, eris.Wrap(err, "checkpoint: parse file")
	}
	if s.dates == nil {
		s.dates = map[string]string{}
	}
	return s, nil
}

// LastScanned returns the last scanned end-date for a company.
func (s *Store) LastScanned(corpCode string) (string, bool) {
	d, ok := s.dates[corpCode]
	return d, ok
}

// Advance records endDate as scanned for the company. The date only
// moves forward; an earlier endDate than the stored one is ignored, so
// the checkpoint stays monotonically non-decreasing. YYYYMMDD strings
// order lexicographically.
func (s *Store) Advance(corpCode, endDate string) {
	if cur, ok := s.dates[corpCode]; ok && cur >= endDate {
		return
	}
	s.dates[corpCode] = endDate
}

// Len returns the number of companies with a checkpoint.
func (s *Store) Len() int { return len(s.dates) }

// Flush rewrites the checkpoint file wholesale via temp file and rename,
// so a crash never leaves a half-written checkpoint.
func (s *Store) Flush() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "checkpoint: create dir")
	}

	b, err := json.MarshalIndent(s.dates, "", "  ")
	if err != nil {
		return eris.Wrap(err, "checkpoint: marshal")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "checkpoint: create temp file")
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "checkpoint: write temp file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "checkpoint: close temp file")
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "checkpoint: replace file")
	}
	return nil
}
