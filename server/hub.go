package server

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/rushrhq/messaging/models"
)

// Client is one user's live websocket connection.
type Client struct {
	UserID uuid.UUID
	Send   chan []byte
}

// Hub fans domain events out to connected clients. It satisfies
// services.Publisher; services publish events without knowing anything
// about websockets. Delivery is best-effort: a slow consumer is dropped
// rather than allowed to block the hub.
type Hub struct {
	clients    map[uuid.UUID]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastPayload
	mutex      sync.RWMutex
}

type broadcastPayload struct {
	userIDs []uuid.UUID
	message []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastPayload, 256),
	}
}

// Run owns the clients map. Meant to be started once, as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			if old, ok := h.clients[client.UserID]; ok {
				close(old.Send)
			}
			h.clients[client.UserID] = client
			h.mutex.Unlock()
			log.Printf("client connected: %s", client.UserID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if current, ok := h.clients[client.UserID]; ok && current == client {
				delete(h.clients, client.UserID)
				close(client.Send)
			}
			h.mutex.Unlock()
			log.Printf("client disconnected: %s", client.UserID)

		case payload := <-h.broadcast:
			h.mutex.RLock()
			for _, userID := range payload.userIDs {
				if client, ok := h.clients[userID]; ok {
					select {
					case client.Send <- payload.message:
					default:
						// Slow consumer; drop the event.
					}
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// Broadcast sends an event to each of the given users' live connections,
// if any. Implements services.Publisher.
func (h *Hub) Broadcast(userIDs []uuid.UUID, event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("error marshaling event: %v", err)
		return
	}
	select {
	case h.broadcast <- broadcastPayload{userIDs: userIDs, message: data}:
	default:
		log.Println("event channel full, dropping event")
	}
}
