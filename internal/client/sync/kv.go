package sync

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
)

// KV is the local persistence primitive under the pending-action queue. The
// store is its only writer; no other component touches it directly.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value BLOB NOT NULL
);
`

// SqliteKV persists keys in a local SQLite database.
type SqliteKV struct {
	db *sqlx.DB
	mu sync.Mutex
}

// NewSqliteKV initializes the kv table on the given database.
func NewSqliteKV(db *sqlx.DB) (*SqliteKV, error) {
	if _, err := db.Exec(kvSchema); err != nil {
		return nil, fmt.Errorf("failed to initialize kv schema: %w", err)
	}
	return &SqliteKV{db: db}, nil
}

func (s *SqliteKV) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value []byte
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SqliteKV) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// MemoryKV is an in-memory KV for tests and for platforms that supply their
// own storage through the same interface.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	m.data[key] = cp
	return nil
}
