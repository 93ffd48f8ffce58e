package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope pushed to every dashboard subscribed to the
// tenant. TenantID routes the event and is never serialized.
type Event struct {
	TenantID  uuid.UUID `json:"-"`
	Topic     string    `json:"topic"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type Hub struct {
	clients    map[*Client]bool
	tenants    map[uuid.UUID]map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		tenants:    make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.fanOut(event)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.tenants[client.tenantID] == nil {
		h.tenants[client.tenantID] = make(map[*Client]bool)
	}
	h.tenants[client.tenantID][client] = true
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		delete(h.tenants[client.tenantID], client)

		if len(h.tenants[client.tenantID]) == 0 {
			delete(h.tenants, client.tenantID)
		}

		close(client.send)
	}
}

func (h *Hub) fanOut(event Event) {
	h.mu.RLock()

	clients := h.tenants[event.TenantID]
	if len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	message, err := json.Marshal(event)
	if err != nil {
		h.mu.RUnlock()
		return
	}

	// Removals need the write lock, so slow consumers are collected
	// first and dropped after the read lock is released.
	var slow []*Client
	for client := range clients {
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.removeClient(client)
	}
}

// Broadcast queues an event for every client of the tenant. The send
// is non-blocking; when the hub's queue is full the event is dropped.
func (h *Hub) Broadcast(tenantID uuid.UUID, topic string, data any) {
	event := Event{
		TenantID:  tenantID,
		Topic:     topic,
		Data:      data,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- event:
	default:
	}
}

func (h *Hub) ClientCount(tenantID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.tenants[tenantID])
}
