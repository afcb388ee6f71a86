// file: internal/realtime/events.go
// version: 2.0.0
// guid: 9e8d7f6a-5c4b-3a21-0f9e-8d7c6b5a4392

package realtime

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/lending-library/internal/logger"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// EventType defines the type of catalog event
type EventType string

const (
	EventBookAdded       EventType = "book.added"
	EventBookBorrowed    EventType = "book.borrowed"
	EventBookReturned    EventType = "book.returned"
	EventCatalogSaved    EventType = "catalog.saved"
	EventCatalogReloaded EventType = "catalog.reloaded"
	EventCatalogImported EventType = "catalog.imported"
)

// heartbeatInterval keeps idle proxies from closing the stream
const heartbeatInterval = 15 * time.Second

// Event is one catalog change sent to clients. Title is empty for events
// that concern the whole catalog.
type Event struct {
	Type      EventType      `json:"type"`
	Title     string         `json:"title,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Client represents a connected SSE client
type Client struct {
	ID      string
	Channel chan *Event
	titles  map[string]bool
	mu      sync.RWMutex
}

// NewClient creates a new SSE client
func NewClient(id string) *Client {
	return &Client{
		ID:      id,
		Channel: make(chan *Event, 100),
		titles:  make(map[string]bool),
	}
}

// Watch limits the client to events about title
func (c *Client) Watch(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.titles[title] = true
}

// Wants reports whether the client should receive event. Catalog-wide
// events reach everyone.
func (c *Client) Wants(event *Event) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return event.Title == "" || len(c.titles) == 0 || c.titles[event.Title]
}

// EventHub manages SSE connections and event distribution
type EventHub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *zap.Logger
}

// NewEventHub creates a new event hub
func NewEventHub(log *zap.Logger) *EventHub {
	return &EventHub{
		clients: make(map[string]*Client),
		log:     logger.OrNop(log),
	}
}

// RegisterClient registers a new client
func (h *EventHub) RegisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	h.log.Debug("event client registered", zap.String("client_id", client.ID), zap.Int("clients", len(h.clients)))
}

// UnregisterClient removes a client and closes its channel
func (h *EventHub) UnregisterClient(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.clients[clientID]; exists {
		close(client.Channel)
		delete(h.clients, clientID)
		h.log.Debug("event client unregistered", zap.String("client_id", clientID), zap.Int("clients", len(h.clients)))
	}
}

// Broadcast sends an event to every interested client. A client whose
// buffer is full misses the event.
func (h *EventHub) Broadcast(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if !client.Wants(event) {
			continue
		}
		select {
		case client.Channel <- event:
		default:
			h.log.Warn("event client channel full, dropping event",
				zap.String("client_id", client.ID), zap.String("type", string(event.Type)))
		}
	}
}

// Publish is a shorthand for broadcasting a new event
func (h *EventHub) Publish(eventType EventType, title string, data map[string]any) {
	h.Broadcast(&Event{Type: eventType, Title: title, Data: data})
}

// GetClientCount returns the number of connected clients
func (h *EventHub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleSSE streams events until the client disconnects. The optional title
// query parameter, repeatable, narrows the stream to those titles.
func (h *EventHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	client := NewClient(ulid.Make().String())
	for _, title := range c.QueryArray("title") {
		client.Watch(title)
	}

	h.RegisterClient(client)
	defer h.UnregisterClient(client.ID)

	if err := writeEvent(c, map[string]any{
		"type":      "connection.established",
		"client_id": client.ID,
	}); err != nil {
		return
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case event, ok := <-client.Channel:
			if !ok {
				return
			}
			if err := writeEvent(c, event); err != nil {
				h.log.Debug("event client write failed", zap.String("client_id", client.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := writeEvent(c, map[string]any{"type": "heartbeat", "timestamp": time.Now()}); err != nil {
				return
			}
		}
	}
}

// writeEvent writes v in SSE format: data: {json}\n\n
func writeEvent(c *gin.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}
