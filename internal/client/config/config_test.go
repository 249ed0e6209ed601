package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate_NormalizesAndDefaults(t *testing.T) {
	tmp := t.TempDir()
	cfg := &Config{
		DataDir:   tmp,
		Email:     "Alice@Example.com",
		ServerURL: "http://127.0.0.1:8080",
		Path:      filepath.Join(tmp, "config.json"),
	}

	require.NoError(t, cfg.Validate())
	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.True(t, filepath.IsAbs(cfg.Path))
	assert.Equal(t, "alice@example.com", cfg.Email)
	assert.Equal(t, DefaultClientAddr, cfg.ClientAddr)
}

func TestConfig_Validate_ErrorsOnInvalidInputs(t *testing.T) {
	tmp := t.TempDir()

	t.Run("bad email", func(t *testing.T) {
		cfg := &Config{
			DataDir:   tmp,
			Email:     "not-an-email",
			ServerURL: "http://127.0.0.1:8080",
		}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "email")
	})

	t.Run("bad server url", func(t *testing.T) {
		cfg := &Config{
			DataDir:   tmp,
			Email:     "alice@example.com",
			ServerURL: "ftp://bad.example.com",
		}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "server url")
	})
}

func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "nested", "config.json")

	cfg := &Config{
		DataDir:   tmp,
		Email:     "bob@example.com",
		ServerURL: "https://api.dayflow.app",
		AuthToken: "tok-123",
	}
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Email, loaded.Email)
	assert.Equal(t, cfg.ServerURL, loaded.ServerURL)
	assert.Equal(t, "tok-123", loaded.AuthToken)
	assert.Equal(t, path, loaded.Path)
}

func TestConfig_LoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, os.IsNotExist(err))
}
