package ws

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// OrderEvent tells connected POS clients that an order changed and they
// should refresh it.
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
}

// Hub fans order events out to every connected client. Delivery is
// fire-and-forget: a full queue or a dead connection never blocks or
// fails the mutation that produced the event.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan OrderEvent
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.Mutex
}

// NewHub constructs a Hub. Call Run in its own goroutine.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan OrderEvent, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// Run services register/unregister/broadcast until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("[WS] write error: %v", err)
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

// OrderChanged implements the engine's broadcast hook. Events are
// dropped, not queued unboundedly, when the hub is saturated.
func (h *Hub) OrderChanged(eventType string, orderID uuid.UUID, orderNumber string) {
	select {
	case h.broadcast <- OrderEvent{Type: eventType, OrderID: orderID, OrderNumber: orderNumber}:
	default:
		log.Printf("[WS] dropping %s event for order %s: broadcast queue full", eventType, orderNumber)
	}
}

// Handler upgrades the connection and keeps it registered until the
// client goes away. Clients only listen; inbound frames are discarded.
func (h *Hub) Handler() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		h.register <- conn
		defer func() { h.unregister <- conn }()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
