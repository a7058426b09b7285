package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginatedLogs(t *testing.T) {
	all := make([]LogEntry, 5)
	for i := range all {
		all[i].Email = string(rune('a'+i)) + "@example.com"
	}

	page := NewPaginatedLogs("q3", all, 2, 2)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 5, page.TotalEntries)
	assert.True(t, page.HasNext)
	assert.True(t, page.HasPrev)
	assert.Equal(t, "c@example.com", page.Entries[0].Email)
	assert.Len(t, page.Entries, 2)

	last := NewPaginatedLogs("q3", all, 3, 2)
	assert.Len(t, last.Entries, 1)
	assert.False(t, last.HasNext)

	past := NewPaginatedLogs("q3", all, 9, 2)
	assert.Empty(t, past.Entries)
	assert.NotNil(t, past.Entries)

	huge := NewPaginatedLogs("q3", all, 1<<62, 4)
	assert.Empty(t, huge.Entries)
	assert.Equal(t, 2, huge.TotalPages)
	assert.False(t, huge.HasNext)
	assert.True(t, huge.HasPrev)

	empty := NewPaginatedLogs("q3", nil, 0, 0)
	assert.Equal(t, 1, empty.Page)
	assert.Equal(t, 1, empty.TotalPages)
	assert.False(t, empty.HasPrev)
}
