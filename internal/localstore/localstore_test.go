package localstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageRoundTrip(t *testing.T) {
	s := NewFileStorage(filepath.Join(t.TempDir(), "nested", "storage"))

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("key", []byte(`{"a":["1"]}`)))
	got, ok, err := s.Get("key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":["1"]}`, string(got))

	require.NoError(t, s.Set("key", []byte(`{}`)))
	got, _, err = s.Get("key")
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestFileStorageRejectsPathKeys(t *testing.T) {
	s := NewFileStorage(t.TempDir())
	assert.Error(t, s.Set("../escape", []byte("x")))
	_, _, err := s.Get("")
	assert.Error(t, err)
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory()
	v := []byte("abc")
	require.NoError(t, m.Set("k", v))
	v[0] = 'z'

	got, ok, err := m.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", string(got))
}
