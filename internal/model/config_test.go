package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.Client.BaseURL)
	assert.Equal(t, 4*time.Second, cfg.CommentInterval())
	assert.Equal(t, 6*time.Second, cfg.UnreadInterval())
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: ":9090"
client:
  author: "Dana"
poll:
  comment_interval_sec: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "Dana", cfg.Client.Author)
	assert.Equal(t, 10*time.Second, cfg.CommentInterval())
	assert.Equal(t, 6*time.Second, cfg.UnreadInterval())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TASKBOARD_SERVER_ADDR", ":7000")
	t.Setenv("DATABASE_URL", "postgres://localhost/taskboard")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "postgres://localhost/taskboard", cfg.Database.DSN)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := defaultAppConfig()
	cfg.Client.Author = "Robin"
	cfg.Poll.UnreadIntervalSec = 12
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Robin", loaded.Client.Author)
	assert.Equal(t, 12, loaded.Poll.UnreadIntervalSec)
}

func TestPollIntervals_FallBackOnNonPositive(t *testing.T) {
	cfg := &AppConfig{Poll: PollConfig{CommentIntervalSec: 0, UnreadIntervalSec: -3}}
	assert.Equal(t, 4*time.Second, cfg.CommentInterval())
	assert.Equal(t, 6*time.Second, cfg.UnreadInterval())
}
