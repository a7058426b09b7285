package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishlab/models"
)

func TestCaptureFeedPublish(t *testing.T) {
	feed := NewCaptureFeed()
	id, events := feed.subscribe()
	assert.Equal(t, 1, feed.Subscribers())

	feed.Publish(models.CaptureEvent{Campaign: "q3", Email: "a@x.com"})

	select {
	case event := <-events:
		assert.Equal(t, "q3", event.Campaign)
		assert.NotEmpty(t, event.ID)
		assert.False(t, event.Time.IsZero())
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	feed.unsubscribe(id)
	assert.Equal(t, 0, feed.Subscribers())
	_, open := <-events
	assert.False(t, open)
}

func TestCaptureFeedDoesNotBlockOnSlowSubscriber(t *testing.T) {
	feed := NewCaptureFeed()
	_, events := feed.subscribe()

	for i := 0; i < subscriberBuffer*2; i++ {
		feed.Publish(models.CaptureEvent{Campaign: "q3"})
	}
	require.Len(t, events, subscriberBuffer)
}
