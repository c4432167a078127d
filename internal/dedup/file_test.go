package dedup

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nsa-scheduler/internal/common/errors"
	"nsa-scheduler/internal/models"
)

func testEntry(recordID string) models.AppointmentRecord {
	return models.AppointmentRecord{
		RecordID:        recordID,
		AppointmentUUID: "appt-" + recordID,
		Customer:        models.Customer{FirstName: "John", LastName: "Doe"},
		DealerID:        "1",
		ScheduledStart:  time.Date(2024, time.July, 15, 9, 30, 0, 0, time.UTC),
		CreatedAt:       time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC),
		Opcodes:         []string{"A1", "NSA1"},
	}
}

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	return store, path
}

func TestFileStore_RecordAndLookup(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	_, found, err := store.Lookup(ctx, "RO-1001")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Record(ctx, testEntry("RO-1001"), false))

	entry, found, err := store.Lookup(ctx, "RO-1001")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "appt-RO-1001", entry.AppointmentUUID)
	assert.Equal(t, []string{"A1", "NSA1"}, entry.Opcodes)
}

func TestFileStore_ConflictWithoutOverride(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, testEntry("RO-1001"), false))

	err := store.Record(ctx, testEntry("RO-1001"), false)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDuplicateConflict))

	// Explicit override replaces the entry.
	replacement := testEntry("RO-1001")
	replacement.AppointmentUUID = "appt-recreated"
	require.NoError(t, store.Record(ctx, replacement, true))

	entry, found, err := store.Lookup(ctx, "RO-1001")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "appt-recreated", entry.AppointmentUUID)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	store, path := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, testEntry("RO-1001"), false))

	// A rerun opens the same file and must see the entry as a duplicate.
	reopened, err := NewFileStore(path)
	require.NoError(t, err)

	_, found, err := reopened.Lookup(ctx, "RO-1001")
	require.NoError(t, err)
	assert.True(t, found)

	err = reopened.Record(ctx, testEntry("RO-1001"), false)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDuplicateConflict))
}

func TestFileStore_CorruptStoreRefusesToOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeCacheCorruption))
}

func TestFileStore_NoPartialStateOnDisk(t *testing.T) {
	store, path := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, testEntry("RO-1"), false))
	require.NoError(t, store.Record(ctx, testEntry("RO-2"), false))

	// After every Record the on-disk document parses cleanly.
	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	for _, id := range []string{"RO-1", "RO-2"} {
		_, found, err := reopened.Lookup(ctx, id)
		require.NoError(t, err)
		assert.True(t, found, id)
	}

	// No temp files left behind.
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFileStore_ConcurrentWritersSingleWinner(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	conflicts := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Record(ctx, testEntry("RO-race"), false); err != nil {
				conflicts <- err
			}
		}()
	}
	wg.Wait()
	close(conflicts)

	var conflictCount int
	for err := range conflicts {
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDuplicateConflict))
		conflictCount++
	}
	assert.Equal(t, writers-1, conflictCount)
}
