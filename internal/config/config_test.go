package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("FD_API_KEY", "sekrit")

	path := writeConfig(t, `
database:
  path: `+filepath.Join(t.TempDir(), "fd.db")+`
backend:
  base_url: http://localhost:8080
  api_key: ${FD_API_KEY}
  poll_seconds: 15
reception:
  payment_tolerance: 2.5
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Backend.BaseURL)
	assert.Equal(t, "sekrit", cfg.Backend.APIKey, "env placeholders must expand")
	assert.Equal(t, 15*time.Second, cfg.PollInterval())
	assert.Equal(t, 2.5, cfg.PaymentTolerance())
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "database:\n  path: "+filepath.Join(dir, "data", "fd.db")+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.PaymentTolerance())
	assert.Equal(t, 30*time.Second, cfg.PollInterval())
	assert.Equal(t, 3, cfg.MinSuggestPrefix())
	assert.DirExists(t, filepath.Join(dir, "data"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
