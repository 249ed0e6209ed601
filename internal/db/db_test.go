package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSqliteDb_InMemory(t *testing.T) {
	d, err := NewSqliteDb()
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Exec(`CREATE TABLE t (k TEXT PRIMARY KEY, v BLOB)`)
	assert.NoError(t, err)
}

func TestNewSqliteDb_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "client.db")

	d, err := NewSqliteDb(WithPath(path))
	require.NoError(t, err)
	defer d.Close()

	assert.FileExists(t, path)
}
