// Package state keeps the record of which pools have been notified and
// persists it as a JSON snapshot.
package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ogulcanaydogan/pool-watch/pkg/model"
)

// Store maps normalized pool keys to their last notification. Only the poll
// runner writes to it; the mutex covers reads from the inspection API.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	records map[string]model.NotifyRecord
}

// snapshotEntry is the on-disk shape of a record. Times are epoch millis.
type snapshotEntry struct {
	NotifiedAt int64   `json:"notifiedAt"`
	Volume     float64 `json:"volume"`
}

// New creates an empty store backed by path. Relative paths are resolved
// against the working directory.
func New(path string, logger *slog.Logger) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve state path %q: %w", path, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:    abs,
		logger:  logger,
		records: make(map[string]model.NotifyRecord),
	}, nil
}

// Path returns the absolute snapshot path.
func (s *Store) Path() string { return s.path }

// Load replaces the in-memory records with the persisted snapshot. A missing
// file leaves the store empty. Unreadable or unparsable snapshots are logged
// and also leave the store empty; they never fail startup.
func (s *Store) Load() error {
	records := make(map[string]model.NotifyRecord)
	defer func() {
		s.mu.Lock()
		s.records = records
		s.mu.Unlock()
	}()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("no state snapshot, starting empty", "path", s.path)
		return nil
	}
	if err != nil {
		s.logger.Error("read state snapshot", "path", s.path, "error", err)
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Error("parse state snapshot", "path", s.path, "error", err)
		return nil
	}

	for key, value := range raw {
		k := model.NormalizeKey(key)
		if k == "" {
			continue
		}
		rec, ok := decodeEntry(value)
		if !ok {
			continue
		}
		records[k] = rec
	}

	s.logger.Info("state loaded", "path", s.path, "records", len(records))
	return nil
}

// decodeEntry accepts either a legacy bare timestamp or a full entry.
func decodeEntry(value json.RawMessage) (model.NotifyRecord, bool) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 || bytes.Equal(value, []byte("null")) {
		return model.NotifyRecord{}, false
	}

	if value[0] != '{' {
		var ms float64
		if err := json.Unmarshal(value, &ms); err != nil {
			return model.NotifyRecord{}, false
		}
		return model.NotifyRecord{NotifiedAt: time.UnixMilli(int64(ms))}, true
	}

	var entry struct {
		NotifiedAt *float64 `json:"notifiedAt"`
		Volume     *float64 `json:"volume"`
	}
	if err := json.Unmarshal(value, &entry); err != nil || entry.NotifiedAt == nil {
		return model.NotifyRecord{}, false
	}
	rec := model.NotifyRecord{NotifiedAt: time.UnixMilli(int64(*entry.NotifiedAt))}
	if entry.Volume != nil {
		rec.Volume = *entry.Volume
	}
	return rec, true
}

// Get returns the record for key.
func (s *Store) Get(key string) (model.NotifyRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[model.NormalizeKey(key)]
	return rec, ok
}

// Set inserts or replaces the record for key. A non-finite volume cannot be
// encoded and is stored as zero.
func (s *Store) Set(key string, rec model.NotifyRecord) {
	k := model.NormalizeKey(key)
	if k == "" {
		return
	}
	if !finite(rec.Volume) {
		s.logger.Warn("non-finite volume stored as zero", "key", k, "volume", rec.Volume)
		rec.Volume = 0
	}
	s.mu.Lock()
	s.records[k] = rec
	s.mu.Unlock()
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Snapshot returns a copy of all records.
func (s *Store) Snapshot() map[string]model.NotifyRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.NotifyRecord, len(s.records))
	for k, v := range s.records {
		out[k] = v
	}
	return out
}

// Persist atomically writes all records to disk.
func (s *Store) Persist() error {
	if err := s.WriteTemp(); err != nil {
		return err
	}
	return s.Commit()
}

func (s *Store) tempPath() string { return s.path + ".tmp" }

// WriteTemp writes the snapshot next to the live file without replacing it.
func (s *Store) WriteTemp() error {
	s.mu.RLock()
	out := make(map[string]snapshotEntry, len(s.records))
	for k, v := range s.records {
		vol := v.Volume
		if !finite(vol) {
			vol = 0
		}
		out[k] = snapshotEntry{NotifiedAt: v.NotifiedAt.UnixMilli(), Volume: vol}
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode state: %w", model.ErrPersist, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: create state directory: %w", model.ErrPersist, err)
	}

	tmp := s.tempPath()
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open temp state: %w", model.ErrPersist, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: write temp state: %w", model.ErrPersist, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: sync temp state: %w", model.ErrPersist, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close temp state: %w", model.ErrPersist, err)
	}
	return nil
}

// Commit moves a previously written temp snapshot over the live file.
func (s *Store) Commit() error {
	if err := os.Rename(s.tempPath(), s.path); err != nil {
		return fmt.Errorf("%w: replace state: %w", model.ErrPersist, err)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
