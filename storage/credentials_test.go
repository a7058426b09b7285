package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCredentialStorage(t *testing.T) *CredentialStorage {
	t.Helper()
	s, err := NewCredentialStorage(filepath.Join(t.TempDir(), "admin_credentials.json"))
	require.NoError(t, err)
	return s
}

func TestCredentialStorageSaveAndVerify(t *testing.T) {
	s := newCredentialStorage(t)
	assert.False(t, s.Exists())
	assert.False(t, s.Verify("a", "p"))

	require.NoError(t, s.Save("a", "p"))
	assert.True(t, s.Exists())

	err := s.Save("a", "p2")
	assert.ErrorIs(t, err, ErrUserExists)

	assert.True(t, s.Verify("a", "p"))
	assert.False(t, s.Verify("a", "p2"))
	assert.False(t, s.Verify("b", "p"))
}

func TestCredentialStorageAppends(t *testing.T) {
	s := newCredentialStorage(t)

	require.NoError(t, s.Save("alice", "one"))
	require.NoError(t, s.Save("bob", "two"))

	assert.Equal(t, 2, s.Count())
	assert.True(t, s.Verify("alice", "one"))
	assert.True(t, s.Verify("bob", "two"))
}

func TestCredentialStorageMalformedFileIsEmpty(t *testing.T) {
	s := newCredentialStorage(t)
	require.NoError(t, os.WriteFile(s.path, []byte("admin,$2b$garbage"), 0600))

	assert.True(t, s.Exists())
	assert.Equal(t, 0, s.Count())
	assert.False(t, s.Verify("admin", "x"))

	require.NoError(t, s.Save("admin", "x"))
	assert.True(t, s.Verify("admin", "x"))
}

func TestCredentialStorageDoesNotStorePlaintext(t *testing.T) {
	s := newCredentialStorage(t)
	require.NoError(t, s.Save("alice", "hunter2"))

	data, err := os.ReadFile(s.path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
}
