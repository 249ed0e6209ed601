package sync

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayflowhq/dayflow-client/internal/db"
)

func payload(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

func TestStore_EnqueueKeepsFIFOOrder(t *testing.T) {
	store := NewStore(NewMemoryKV())
	require.NoError(t, store.Load())

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := store.Enqueue(KindScheduleUpdate, payload(map[string]any{"n": i}), 3)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	actions := store.List()
	require.Len(t, actions, 5)
	for i, a := range actions {
		assert.Equal(t, ids[i], a.ID)
		assert.Equal(t, StatusQueued, a.Status)
		assert.Equal(t, 0, a.Attempts)
	}
}

func TestStore_PersistenceRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "dayflow.db")

	d, err := db.NewSqliteDb(db.WithPath(dbPath))
	require.NoError(t, err)
	kv, err := NewSqliteKV(d)
	require.NoError(t, err)

	store := NewStore(kv)
	require.NoError(t, store.Load())

	id1, err := store.Enqueue(KindReminderCreate, payload(map[string]string{"title": "water plants"}), 2)
	require.NoError(t, err)
	id2, err := store.Enqueue(KindUpload, payload(map[string]string{"file": "a.jpg"}), 5)
	require.NoError(t, err)
	require.NoError(t, store.MarkFailed(id2, false))
	require.NoError(t, d.Close())

	// simulate a process restart
	d2, err := db.NewSqliteDb(db.WithPath(dbPath))
	require.NoError(t, err)
	defer d2.Close()
	kv2, err := NewSqliteKV(d2)
	require.NoError(t, err)

	reloaded := NewStore(kv2)
	require.NoError(t, reloaded.Load())

	actions := reloaded.List()
	require.Len(t, actions, 2)
	assert.Equal(t, id1, actions[0].ID)
	assert.Equal(t, KindReminderCreate, actions[0].Kind)
	assert.Equal(t, StatusQueued, actions[0].Status)
	assert.Equal(t, id2, actions[1].ID)
	assert.Equal(t, StatusFailedRetryable, actions[1].Status)
	assert.Equal(t, 1, actions[1].Attempts)
}

func TestStore_LoadRequeuesInFlight(t *testing.T) {
	kv := NewMemoryKV()
	store := NewStore(kv)
	require.NoError(t, store.Load())

	id, err := store.Enqueue(KindProgressUpdate, payload(map[string]any{"done": 1.0}), 3)
	require.NoError(t, err)
	require.NoError(t, store.MarkInFlight(id))

	// a crash mid-replay leaves the persisted action in-flight
	reloaded := NewStore(kv)
	require.NoError(t, reloaded.Load())

	actions := reloaded.List()
	require.Len(t, actions, 1)
	assert.Equal(t, StatusQueued, actions[0].Status)
}

func TestStore_MarkFailedRetryBoundary(t *testing.T) {
	store := NewStore(NewMemoryKV())
	require.NoError(t, store.Load())

	id, err := store.Enqueue(KindScheduleCreate, payload(map[string]string{"title": "gym"}), 2)
	require.NoError(t, err)

	// attempts 1 and 2 stay retryable, attempt 3 crosses maxRetries=2
	require.NoError(t, store.MarkFailed(id, false))
	assert.Equal(t, StatusFailedRetryable, store.List()[0].Status)

	require.NoError(t, store.MarkFailed(id, false))
	assert.Equal(t, StatusFailedRetryable, store.List()[0].Status)
	assert.Equal(t, 2, store.List()[0].Attempts)

	require.NoError(t, store.MarkFailed(id, false))
	assert.Equal(t, StatusFailedTerminal, store.List()[0].Status)
	assert.Equal(t, 3, store.List()[0].Attempts)
}

func TestStore_MarkFailedTerminalShortCircuits(t *testing.T) {
	store := NewStore(NewMemoryKV())
	require.NoError(t, store.Load())

	id, err := store.Enqueue(KindScheduleUpdate, payload(nil), 10)
	require.NoError(t, err)

	// a validation rejection is terminal regardless of remaining retries
	require.NoError(t, store.MarkFailed(id, true))
	assert.Equal(t, StatusFailedTerminal, store.List()[0].Status)
	assert.Equal(t, 1, store.List()[0].Attempts)
}

func TestStore_RemoveOnlyDismissesTerminal(t *testing.T) {
	store := NewStore(NewMemoryKV())
	require.NoError(t, store.Load())

	id, err := store.Enqueue(KindUpload, payload(nil), 1)
	require.NoError(t, err)

	assert.ErrorIs(t, store.Remove(id), ErrActionNotTerminal)

	require.NoError(t, store.MarkFailed(id, true))
	require.NoError(t, store.Remove(id))
	assert.Empty(t, store.List())

	assert.ErrorIs(t, store.Remove(id), ErrActionNotFound)
}

func TestStore_MarkSucceededRemovesEntry(t *testing.T) {
	store := NewStore(NewMemoryKV())
	require.NoError(t, store.Load())

	id1, _ := store.Enqueue(KindUpload, payload(nil), 1)
	id2, _ := store.Enqueue(KindUpload, payload(nil), 1)

	require.NoError(t, store.MarkSucceeded(id1))
	actions := store.List()
	require.Len(t, actions, 1)
	assert.Equal(t, id2, actions[0].ID)
}

type failingKV struct {
	err error
}

func (f *failingKV) Get(string) ([]byte, bool, error) { return nil, false, nil }
func (f *failingKV) Set(string, []byte) error         { return f.err }

func TestStore_EnqueueSurfacesStorageError(t *testing.T) {
	store := NewStore(&failingKV{err: fmt.Errorf("disk full")})
	require.NoError(t, store.Load())

	_, err := store.Enqueue(KindUpload, payload(nil), 1)
	require.Error(t, err)

	var storageErr *StorageError
	assert.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "enqueue", storageErr.Op)

	// the failed enqueue must not linger in the in-memory cache
	assert.Empty(t, store.List())
}

func TestStore_MarkRollsBackOnStorageError(t *testing.T) {
	kv := &failingKV{}
	store := NewStore(kv)
	require.NoError(t, store.Load())

	id, err := store.Enqueue(KindUpload, payload(nil), 2)
	require.NoError(t, err)

	kv.err = fmt.Errorf("disk full")

	// a failed persist must leave the cache matching the persisted copy
	var storageErr *StorageError
	err = store.MarkInFlight(id)
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, StatusQueued, store.List()[0].Status)

	err = store.MarkFailed(id, false)
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, StatusQueued, store.List()[0].Status)
	assert.Equal(t, 0, store.List()[0].Attempts)

	err = store.Reprioritize(id)
	require.True(t, errors.As(err, &storageErr))
	assert.False(t, store.List()[0].Prioritized)

	kv.err = nil
	require.NoError(t, store.MarkFailed(id, false))
	assert.Equal(t, StatusFailedRetryable, store.List()[0].Status)
	assert.Equal(t, 1, store.List()[0].Attempts)
}

func TestStore_ListReturnsSnapshot(t *testing.T) {
	store := NewStore(NewMemoryKV())
	require.NoError(t, store.Load())

	_, err := store.Enqueue(KindUpload, payload(map[string]string{"f": "x"}), 1)
	require.NoError(t, err)

	snap := store.List()
	snap[0].Status = StatusFailedTerminal
	snap[0].Payload[0] = '!'

	assert.Equal(t, StatusQueued, store.List()[0].Status)
	assert.EqualValues(t, '{', store.List()[0].Payload[0])
}
