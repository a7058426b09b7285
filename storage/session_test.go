package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionStorage(t *testing.T) *SessionStorage {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	s := NewSessionStorage(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionStorageGetSetDelete(t *testing.T) {
	s := newSessionStorage(t)

	val, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, val)

	require.NoError(t, s.Set("k", []byte("v"), 0))
	val, err = s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)

	require.NoError(t, s.Delete("k"))
	val, err = s.Get("k")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestSessionStorageExpiry(t *testing.T) {
	s := newSessionStorage(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set("short", []byte("a"), time.Minute))
	require.NoError(t, s.Set("long", []byte("b"), time.Hour))
	require.NoError(t, s.Set("forever", []byte("c"), 0))

	now = now.Add(10 * time.Minute)

	val, err := s.Get("short")
	require.NoError(t, err)
	assert.Nil(t, val)

	removed, err := s.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	val, err = s.Get("long")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), val)
	val, err = s.Get("forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), val)
}

func TestSessionStorageReset(t *testing.T) {
	s := newSessionStorage(t)
	require.NoError(t, s.Set("a", []byte("1"), 0))
	require.NoError(t, s.Reset())

	val, err := s.Get("a")
	require.NoError(t, err)
	assert.Nil(t, val)
}
