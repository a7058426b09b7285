package storage

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishlab/utils"
)

func TestAppendLogEscapesFields(t *testing.T) {
	s, _ := newCampaignStorage(t)
	fixed := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.AppendLog("c", "u@x.com", "secret,1", "UA\nwithnewline"))

	entries, err := s.ReadLog("c")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "u@x.com", entry.Email)
	assert.Equal(t, "secret"+CommaToken+"1", entry.Password)
	assert.Equal(t, "2024-05-01T10:30:00Z", entry.Timestamp)
	assert.Equal(t, "UAwithnewline", entry.UserAgent)
	assert.False(t, entry.Legacy)
}

func TestAppendLogTruncates(t *testing.T) {
	s, _ := newCampaignStorage(t)

	require.NoError(t, s.AppendLog("c", strings.Repeat("e", 300), strings.Repeat("p", 300), strings.Repeat("u", 300)))

	entries, err := s.ReadLog("c")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Email, maxFieldLength)
	assert.Len(t, entries[0].Password, maxFieldLength)
	assert.Len(t, entries[0].UserAgent, maxUserAgentLength)
}

func TestReadLogClassifiesClients(t *testing.T) {
	s, _ := newCampaignStorage(t)
	ua := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

	require.NoError(t, s.AppendLog("c", "a@x.com", "pw", ua))

	entries, err := s.ReadLog("c")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "iOS", entries[0].Client.OS)
	assert.Equal(t, "Safari", entries[0].Client.Browser)
	assert.Equal(t, utils.DeviceMobile, entries[0].Client.Device)
}

func TestReadLogLegacyRecords(t *testing.T) {
	s, root := newCampaignStorage(t)
	content := "old@x.com,pw,2023-01-01T00:00:00Z\n\nonly@x.com\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "logs", "legacy_log.txt"), []byte(content), 0600))

	entries, err := s.ReadLog("legacy")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "old@x.com", entries[0].Email)
	assert.Equal(t, "2023-01-01T00:00:00Z", entries[0].Timestamp)
	assert.Equal(t, utils.UnknownValue, entries[0].UserAgent)
	assert.Equal(t, utils.UnknownValue, entries[0].Client.OS)
	assert.True(t, entries[0].Legacy)

	assert.Equal(t, "only@x.com", entries[1].Email)
	assert.Equal(t, MissingField, entries[1].Password)
	assert.Equal(t, MissingField, entries[1].Timestamp)
}

func TestReadLogWithoutRecords(t *testing.T) {
	s, _ := newCampaignStorage(t)

	_, err := s.ReadLog("nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.ReadLog("../x")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestAppendLogConcurrent(t *testing.T) {
	s, _ := newCampaignStorage(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.AppendLog("busy", "a@x.com", "pw", "UA"))
		}()
	}
	wg.Wait()

	entries, err := s.ReadLog("busy")
	require.NoError(t, err)
	assert.Len(t, entries, 50)
}
