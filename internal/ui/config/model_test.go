package config

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
)

func newSettings(t *testing.T, check HealthCheck) (Model, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	return New(*cfg, path, check, keys.DefaultKeyMap(), 80, 24), path
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateURL("http://localhost:8080"))
	assert.NoError(t, validateURL("https://board.example.com"))
	assert.Error(t, validateURL("localhost:8080"))
	assert.Error(t, validateURL("ftp://x"))

	assert.NoError(t, validateSeconds(" 4 "))
	assert.Error(t, validateSeconds("0"))
	assert.Error(t, validateSeconds("soon"))
}

func TestSaveWritesConfig(t *testing.T) {
	m, path := newSettings(t, nil)
	m.fb.baseURL = " http://board:9000/ "
	m.fb.author = "Dana"
	m.fb.commentSecs = "5"
	m.fb.unreadSecs = "10"

	msg := m.save(m.applyForm())()
	m, cmd := m.Update(msg)
	require.NotNil(t, cmd)

	saved := cmd().(ConfigSavedMsg).Config
	assert.Equal(t, "http://board:9000", saved.Client.BaseURL)
	assert.Equal(t, "Dana", saved.Client.Author)
	assert.Equal(t, "Dana", m.Config().Client.Author)

	reloaded, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://board:9000", reloaded.Client.BaseURL)
	assert.Equal(t, 5, reloaded.Poll.CommentIntervalSec)
	assert.Equal(t, 10, reloaded.Poll.UnreadIntervalSec)
}

func TestConnectionTest(t *testing.T) {
	var gotURL string
	m, _ := newSettings(t, func(_ context.Context, baseURL string) error {
		gotURL = baseURL
		return errors.New("connection refused")
	})

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, ModeValidating, m.mode)

	result := m.validate(m.cfg.Client.BaseURL)()
	m, _ = m.Update(result)
	assert.Equal(t, "http://localhost:8080", gotURL)
	assert.Equal(t, ModeValidateResult, m.mode)
	assert.Contains(t, m.View(), "connection refused")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Equal(t, ModeView, m.mode)
}

func TestEscLeaves(t *testing.T) {
	m, _ := newSettings(t, nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, ConfigDoneMsg{}, cmd())
}
