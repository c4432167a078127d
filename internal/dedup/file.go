// internal/dedup/file.go
package dedup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	apperrors "nsa-scheduler/internal/common/errors"
	"nsa-scheduler/internal/models"
)

// FileStore keeps the cache in a single JSON document keyed by record
// identifier. Writes go to a temp file in the same directory, are fsynced,
// then atomically renamed over the store, so a crash never leaves the store
// half-written. A sibling .lock file serializes read-modify-write cycles
// across processes; the in-process mutex covers worker goroutines, which the
// file lock alone does not.
type FileStore struct {
	path string
	mu   sync.Mutex
	lock *flock.Flock
}

const lockRetryDelay = 50 * time.Millisecond

func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	s := &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}

	// Fail fast on an unreadable store: proceeding would risk duplicate
	// appointment creation.
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Lookup(ctx context.Context, recordID string) (*models.AppointmentRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, false, fmt.Errorf("acquire cache read lock: %w", err)
	}
	if !locked {
		return nil, false, fmt.Errorf("cache read lock not acquired")
	}
	defer s.lock.Unlock()

	entries, err := s.load()
	if err != nil {
		return nil, false, err
	}

	entry, ok := entries[recordID]
	if !ok {
		return nil, false, nil
	}
	return &entry, true, nil
}

func (s *FileStore) Record(ctx context.Context, entry models.AppointmentRecord, override bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("acquire cache write lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("cache write lock not acquired")
	}
	defer s.lock.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}

	if _, exists := entries[entry.RecordID]; exists && !override {
		return apperrors.NewDuplicateConflictError(entry.RecordID)
	}

	entries[entry.RecordID] = entry
	return s.commit(entries)
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) load() (map[string]models.AppointmentRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]models.AppointmentRecord{}, nil
	}
	if err != nil {
		return nil, apperrors.NewCacheCorruptionError(err)
	}

	entries := map[string]models.AppointmentRecord{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, apperrors.NewCacheCorruptionError(err)
	}
	return entries, nil
}

// commit writes the document durably: temp file, fsync, atomic rename.
func (s *FileStore) commit(entries map[string]models.AppointmentRecord) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".nsa_cache-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}

	// Persist the rename itself.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
