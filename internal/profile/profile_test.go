package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), p)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeProfile(t, `
workers: 8
keep_alive: 2s
log_format: json
`)
	p, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, p.Workers)
	assert.Equal(t, 2*time.Second, p.KeepAlive)
	assert.Equal(t, "json", p.LogFormat)

	// untouched keys keep their defaults
	assert.Equal(t, 64, p.EventBuffer)
	assert.Equal(t, "info", p.LogLevel)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading profile")

	path := writeProfile(t, "workers: [not a number")
	_, err = Load(path)
	assert.ErrorContains(t, err, "parsing profile")
}
