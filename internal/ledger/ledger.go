// Package ledger persists the append-only history of gate runs. It is the
// single shared mutable resource in the system: appends are serialized
// through an exclusive lock file, and the ledger file itself is replaced via
// write-temp-then-rename so a crash mid-write never corrupts prior history.
package ledger

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lindia/preflight/internal/engine"
)

const (
	fileName = "history.jsonl"
	lockName = "history.lock"

	// lockStaleAfter bounds how long a dead process can hold the ledger.
	lockStaleAfter = 30 * time.Second
	lockRetryEvery = 10 * time.Millisecond
	lockWait       = 5 * time.Second
)

// ErrNoSafeBaseline is returned when the ledger holds no SAFE_TO_PROCEED
// record to roll back to.
var ErrNoSafeBaseline = errors.New("ledger: no known-good baseline recorded")

// Ledger is the append-only run history, one JSON record per line.
type Ledger struct {
	dir string
}

// Open returns a Ledger stored under dir, creating the directory if needed.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ledger: creating %s: %w", dir, err)
	}
	return &Ledger{dir: dir}, nil
}

func (l *Ledger) path() string     { return filepath.Join(l.dir, fileName) }
func (l *Ledger) lockPath() string { return filepath.Join(l.dir, lockName) }

// Append assigns the record's build number and persists it. The build number
// is the previous maximum plus one, computed and written under the ledger
// lock so concurrent gate invocations cannot race to a duplicate or a gap.
// The record must not already be in the ledger (its build number is zero).
func (l *Ledger) Append(record *engine.RunRecord) error {
	if record.BuildNumber != 0 {
		return fmt.Errorf("ledger: record %s already has build number %d", record.ID, record.BuildNumber)
	}

	unlock, err := l.acquireLock()
	if err != nil {
		return err
	}
	defer unlock()

	existing, err := l.readAll()
	if err != nil {
		return err
	}
	record.BuildNumber = len(existing) + 1

	// Rewrite the whole file to a temp path and rename it into place. The
	// rename is atomic on POSIX filesystems, so readers only ever see a
	// complete ledger.
	tmp, err := os.CreateTemp(l.dir, fileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("ledger: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, r := range existing {
		if err := enc.Encode(r); err != nil {
			_ = tmp.Close()
			return fmt.Errorf("ledger: re-encoding record %d: %w", r.BuildNumber, err)
		}
	}
	if err := enc.Encode(record); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("ledger: encoding record: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("ledger: flushing: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("ledger: syncing: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ledger: closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, l.path()); err != nil {
		return fmt.Errorf("ledger: committing append: %w", err)
	}
	return nil
}

// All returns every record in append order.
func (l *Ledger) All() ([]*engine.RunRecord, error) {
	return l.readAll()
}

// Last returns the most recent record, or nil when the ledger is empty.
func (l *Ledger) Last() (*engine.RunRecord, error) {
	records, err := l.readAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[len(records)-1], nil
}

// LastSafe scans newest-first for the most recent SAFE_TO_PROCEED record.
// When beforeRevision is non-empty, records for that revision are excluded
// so a failing revision never recommends itself. Returns ErrNoSafeBaseline
// when no such record exists.
func (l *Ledger) LastSafe(beforeRevision string) (*engine.RunRecord, error) {
	records, err := l.readAll()
	if err != nil {
		return nil, err
	}
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if r.Decision != engine.DecisionSafe {
			continue
		}
		if beforeRevision != "" && r.Revision == beforeRevision {
			continue
		}
		return r, nil
	}
	return nil, ErrNoSafeBaseline
}

func (l *Ledger) readAll() ([]*engine.RunRecord, error) {
	f, err := os.Open(l.path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: opening: %w", err)
	}
	defer func() { _ = f.Close() }()

	var records []*engine.RunRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var r engine.RunRecord
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			return nil, fmt.Errorf("ledger: corrupt record at line %d: %w", line, err)
		}
		records = append(records, &r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ledger: reading: %w", err)
	}
	return records, nil
}

// acquireLock takes the exclusive append lock, breaking it if the previous
// holder died. Returns the release func.
func (l *Ledger) acquireLock() (func(), error) {
	deadline := time.Now().Add(lockWait)
	for {
		f, err := os.OpenFile(l.lockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, _ = fmt.Fprintf(f, "%d %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
			_ = f.Close()
			return func() { _ = os.Remove(l.lockPath()) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("ledger: acquiring lock: %w", err)
		}
		if info, statErr := os.Stat(l.lockPath()); statErr == nil &&
			time.Since(info.ModTime()) > lockStaleAfter {
			l.breakStale()
			continue
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("ledger: lock held by another gate run (remove %s if stale)", l.lockPath())
		}
		time.Sleep(lockRetryEvery)
	}
}

// breakStale removes the lock only if it is genuinely stale. The lock is
// renamed aside first, so when several waiters observe the same stale lock
// only the one whose rename succeeds breaks it. The renamed file is then
// re-statted: a fresh lock can replace the stale one between observation
// and rename, and that one is restored, not deleted.
func (l *Ledger) breakStale() bool {
	aside := fmt.Sprintf("%s.stale-%d-%d", l.lockPath(), os.Getpid(), time.Now().UnixNano())
	if err := os.Rename(l.lockPath(), aside); err != nil {
		return false
	}
	if info, err := os.Stat(aside); err == nil &&
		time.Since(info.ModTime()) > lockStaleAfter {
		_ = os.Remove(aside)
		return true
	}
	_ = os.Rename(aside, l.lockPath())
	return false
}
