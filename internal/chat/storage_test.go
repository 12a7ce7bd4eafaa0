package chat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chat.json")
	s := NewFileStorage(path)

	_, ok, err := s.Get("chat_messages")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("chat_messages", []byte(`[{"role":"user","content":"hi"}]`)))
	require.NoError(t, s.Set("dark_mode", []byte(`true`)))

	other := NewFileStorage(path)
	v, ok, err := other.Get("chat_messages")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"role":"user","content":"hi"}]`, string(v))

	v, ok, err = other.Get("dark_mode")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "true", string(v))
}

func TestFileStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	_, _, err := NewFileStorage(path).Get("dark_mode")
	assert.ErrorContains(t, err, "failed to parse storage file")
}

func TestMemoryStorage_CopiesValue(t *testing.T) {
	s := NewMemoryStorage()
	buf := []byte("true")
	require.NoError(t, s.Set("k", buf))
	buf[0] = 'X'

	v, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", string(v))
}
