// Package corpus persists collected filings: an append-only JSONL log as
// the durable source of truth, mirrored into a CSV snapshot for
// downstream tooling.
package corpus

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dartlab/divcollect/internal/model"
)

// Raw bodies routinely run to megabytes; size the line scanner for them.
const maxLineSize = 64 * 1024 * 1024

// Store persists filings under a JSONL log path and a CSV snapshot path.
type Store struct {
	logPath      string
	snapshotPath string
}

// New creates a Store over the given log and snapshot paths.
func New(logPath, snapshotPath string) *Store {
	return &Store{logPath: logPath, snapshotPath: snapshotPath}
}

// SeenReceipts scans the JSONL log and returns the set of receipt numbers
// already collected. The log itself, not a separate index, is the source
// of truth for membership.
func (s *Store) SeenReceipts() (map[string]struct{}, error) {
	seen := map[string]struct{}{}

	f, err := os.Open(s.logPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return seen, nil
		}
		return nil, eris.Wrap(err, "corpus: open log")
	}
	defer f.Close() //nolint:errcheck

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	var lineNo int
	for sc.Scan() {
		lineNo++
		var rec struct {
			ReceiptNo string `json:"rcept_no"`
		}
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			zap.L().Warn("corpus: skipping malformed log line",
				zap.Int("line", lineNo),
				zap.Error(err),
			)
			continue
		}
		if rec.ReceiptNo != "" {
			seen[rec.ReceiptNo] = struct{}{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "corpus: scan log")
	}
	return seen, nil
}

// Append writes records to the JSONL log, one self-describing record per
// line.
func (s *Store) Append(records []model.FilingRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.logPath), 0o755); err != nil {
		return eris.Wrap(err, "corpus: create data dir")
	}

	f, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return eris.Wrap(err, "corpus: open log for append")
	}
	defer f.Close() //nolint:errcheck

	w := bufio.NewWriter(f)
	for _, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrapf(err, "corpus: marshal record %s", rec.ReceiptNo)
		}
		if _, err := w.Write(append(b, '\n')); err != nil {
			return eris.Wrap(err, "corpus: write log line")
		}
	}
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "corpus: flush log")
	}
	return nil
}

// WriteSnapshot merges new records into the CSV snapshot. A prior
// snapshot is carried over by concatenation, never regenerated from the
// log; the replace itself is atomic.
func (s *Store) WriteSnapshot(records []model.FilingRecord) error {
	if len(records) == 0 {
		return nil
	}
	dir := filepath.Dir(s.snapshotPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "corpus: create data dir")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.snapshotPath)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "corpus: create temp snapshot")
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	hasPrior, err := s.copyPriorSnapshot(tmp)
	if err != nil {
		return err
	}

	w := csv.NewWriter(tmp)
	if !hasPrior {
		if err := w.Write(model.SnapshotHeader()); err != nil {
			return eris.Wrap(err, "corpus: write snapshot header")
		}
	}
	for _, rec := range records {
		if err := w.Write(rec.SnapshotRow()); err != nil {
			return eris.Wrapf(err, "corpus: write snapshot row %s", rec.ReceiptNo)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "corpus: flush snapshot")
	}

	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "corpus: close temp snapshot")
	}
	if err := os.Rename(tmp.Name(), s.snapshotPath); err != nil {
		return eris.Wrap(err, "corpus: replace snapshot")
	}
	return nil
}

// copyPriorSnapshot copies any existing snapshot into w and reports
// whether one existed. A missing trailing newline is repaired so appended
// rows start on their own line.
func (s *Store) copyPriorSnapshot(w io.Writer) (bool, error) {
	prior, err := os.Open(s.snapshotPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, eris.Wrap(err, "corpus: open prior snapshot")
	}
	defer prior.Close() //nolint:errcheck

	var lastByte byte
	buf := make([]byte, 64*1024)
	var copied int64
	for {
		n, readErr := prior.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return false, eris.Wrap(err, "corpus: copy prior snapshot")
			}
			lastByte = buf[n-1]
			copied += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return false, eris.Wrap(readErr, "corpus: read prior snapshot")
		}
	}

	if copied == 0 {
		return false, nil
	}
	if lastByte != '\n' {
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return false, eris.Wrap(err, "corpus: terminate prior snapshot")
		}
	}
	return true, nil
}
