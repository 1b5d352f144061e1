package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database: /var/lib/casewise/checkpoints.db
active_limit: 20
history_limit: 10
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/casewise/checkpoints.db", cfg.Database)
	assert.Equal(t, 20, cfg.ActiveLimit)
	assert.Equal(t, 10, cfg.HistoryLimit)
}

func TestLoadConfig_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: ./checkpoints.db\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "./checkpoints.db", cfg.Database)
	assert.Zero(t, cfg.ActiveLimit)
	assert.Zero(t, cfg.HistoryLimit)
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unclosed\n"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
