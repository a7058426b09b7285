package api

import (
	"bufio"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	"phishlab/models"
	"phishlab/utils"
)

const subscriberBuffer = 16

// CaptureFeed pushes capture events to dashboards over SSE or WebSocket.
// Events carry the submitting address and client, never the password.
type CaptureFeed struct {
	subscribers map[string]chan models.CaptureEvent
	mu          sync.RWMutex
	keepAlive   time.Duration
}

// NewCaptureFeed creates an empty feed
func NewCaptureFeed() *CaptureFeed {
	return &CaptureFeed{
		subscribers: make(map[string]chan models.CaptureEvent),
		keepAlive:   30 * time.Second,
	}
}

func (f *CaptureFeed) subscribe() (string, chan models.CaptureEvent) {
	id := uuid.New().String()
	ch := make(chan models.CaptureEvent, subscriberBuffer)

	f.mu.Lock()
	f.subscribers[id] = ch
	f.mu.Unlock()
	return id, ch
}

func (f *CaptureFeed) unsubscribe(id string) {
	f.mu.Lock()
	if ch, ok := f.subscribers[id]; ok {
		delete(f.subscribers, id)
		close(ch)
	}
	f.mu.Unlock()
}

// Subscribers returns the number of connected listeners
func (f *CaptureFeed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers)
}

// Publish stamps event and delivers it to every subscriber without blocking
func (f *CaptureFeed) Publish(event models.CaptureEvent) {
	event.ID = uuid.New().String()
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	utils.Log.Debug("Broadcasting capture for %s to %d subscribers", event.Campaign, len(f.subscribers))

	for id, ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			utils.Log.Warn("Capture feed channel full for subscriber %s", id)
		}
	}
}

// HandleSSE streams events as Server-Sent Events
func (f *CaptureFeed) HandleSSE(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")

	id, events := f.subscribe()
	utils.Log.Info("SSE subscriber connected: %s", id)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			f.unsubscribe(id)
			utils.Log.Info("SSE subscriber disconnected: %s", id)
		}()

		ticker := time.NewTicker(f.keepAlive)
		defer ticker.Stop()

		w.WriteString(": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				data, _ := json.Marshal(event)
				w.WriteString("event: capture\ndata: " + string(data) + "\n\n")
			case <-ticker.C:
				w.WriteString(": keepalive\n\n")
			}
			// A failed flush means the client went away
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))

	return nil
}

// HandleWebSocket streams events as JSON messages
func (f *CaptureFeed) HandleWebSocket(c *websocket.Conn) {
	id, events := f.subscribe()
	defer func() {
		f.unsubscribe(id)
		c.Close()
		utils.Log.Info("WebSocket subscriber disconnected: %s", id)
	}()

	utils.Log.Info("WebSocket subscriber connected: %s", id)

	// Reader loop detects the client closing the socket
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := c.WriteJSON(event); err != nil {
				utils.Log.Error("Failed to send WebSocket capture event: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}

// UpgradeWebSocket only lets WebSocket handshakes through to the handler
func UpgradeWebSocket(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
