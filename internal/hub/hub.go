// Package hub tracks which websocket connections are subscribed to
// which collections and fans change broadcasts out to them.
package hub

import (
	"encoding/json"
	"sync"
)

// Client is one websocket connection's presence in the hub. Collections
// holds the ids the connection has successfully synced; the write pump
// drains Send.
type Client struct {
	ID          string
	UserID      string
	Groups      []string
	Collections map[string]bool
	Send        chan []byte
}

type CollectionMessage struct {
	ColID   string
	Payload any
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *CollectionMessage
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *CollectionMessage, 256),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, _ := json.Marshal(msg.Payload)
			h.mu.RLock()
			for _, client := range h.clients {
				if client.Collections[msg.ColID] {
					select {
					case client.Send <- data:
					default:
						// Client buffer full, skip
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe marks the client as a subscriber of the collection. The
// change broadcast for a successful edit goes to every subscriber, the
// originator included, so each client learns the authoritative colrev
// for its own optimistic edits.
func (h *Hub) Subscribe(clientID, colID string) {
	h.mu.Lock()
	if client, ok := h.clients[clientID]; ok {
		client.Collections[colID] = true
	}
	h.mu.Unlock()
}

func (h *Hub) Unsubscribe(clientID, colID string) {
	h.mu.Lock()
	if client, ok := h.clients[clientID]; ok {
		delete(client.Collections, colID)
	}
	h.mu.Unlock()
}

// IsSubscribed reports whether the client holds at least one collection
// subscription. The idle timer uses this to decide whether to drop a
// connection that never synced anything.
func (h *Hub) IsSubscribed(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[clientID]
	return ok && len(client.Collections) > 0
}

func (h *Hub) SubscriberCount(colID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, client := range h.clients {
		if client.Collections[colID] {
			count++
		}
	}
	return count
}

// Broadcast queues a message for every subscriber of the collection.
func (h *Hub) Broadcast(colID string, payload any) {
	h.broadcast <- &CollectionMessage{ColID: colID, Payload: payload}
}
